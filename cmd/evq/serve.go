package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sablehq/eventq/internal/config"
	"github.com/sablehq/eventq/internal/events"
	"github.com/sablehq/eventq/internal/queue"
	"github.com/sablehq/eventq/internal/server"
	"github.com/sablehq/eventq/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the eventq server and dispatcher",
	// Override PersistentPreRunE so we don't create an HTTP client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		// Broadcast fan-out: NATS (when configured) plus the in-process
		// SSE hub, so API clients and stream consumers see the same
		// transitions.
		hub := server.NewHub()
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			natsPub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = events.NewFanout(natsPub, hub)
			logger.Info("realtime events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = events.NewFanout(hub)
			logger.Info("realtime events limited to SSE (EVENTQ_NATS_URL not set)")
		}

		emitter := queue.NewEmitter(store, publisher, logger)

		registry := queue.NewRegistry()
		if err := registerBuiltinHandlers(registry); err != nil {
			publisher.Close()
			store.Close()
			return err
		}
		logger.Info("handlers registered", "patterns", registry.Patterns())

		dispatcher := queue.NewDispatcher(store, registry, publisher, queue.DispatcherConfig{
			BatchSize:    cfg.BatchSize,
			StuckTimeout: cfg.StuckTimeout,
			Concurrency:  cfg.DispatchConcurrency,
			Retry: queue.RetryScheduler{
				BaseDelay: cfg.RetryBaseDelay,
				MaxDelay:  cfg.RetryMaxDelay,
			},
		}, logger)
		runner := queue.NewRunner(dispatcher, cfg.PollInterval, logger)
		runner.Start(context.Background())

		srv := server.New(store, emitter, publisher, hub, logger)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("eventq server started",
			"http_addr", cfg.HTTPAddr,
			"poll_interval", cfg.PollInterval,
			"batch_size", cfg.BatchSize,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		runner.Stop()
		logger.Info("dispatch runner stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
