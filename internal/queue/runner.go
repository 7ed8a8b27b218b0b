package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner drives the Dispatcher on a fixed interval. Ticks never overlap;
// a tick that outlasts the interval simply delays the next one.
type Runner struct {
	dispatcher *Dispatcher
	interval   time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a Runner that ticks the dispatcher every interval.
func NewRunner(d *Dispatcher, interval time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		dispatcher: d,
		interval:   interval,
		logger:     logger,
	}
}

// Start launches the polling loop. The first tick fires immediately so a
// fresh process drains due work without waiting a full interval. Calling
// Start on a running Runner is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.logger.Info("dispatch runner started", "interval", r.interval)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				r.logger.Info("dispatch runner stopped")
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight tick to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
}

func (r *Runner) tick(ctx context.Context) {
	if _, err := r.dispatcher.Tick(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("dispatch tick failed", "error", err)
	}
}
