package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sablehq/eventq/internal/client"
	"github.com/sablehq/eventq/internal/events"
	"github.com/sablehq/eventq/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch events as they change state",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		eventType, _ := cmd.Flags().GetString("type")
		interval, _ := cmd.Flags().GetDuration("interval")
		natsURL, _ := cmd.Flags().GetString("nats-url")

		req := &client.ListEventsRequest{
			Sort:  "-updated_at",
			Limit: 100,
		}
		if status != "" {
			req.Status = strings.Split(status, ",")
		}
		if eventType != "" {
			req.Type = strings.Split(eventType, ",")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		seen := make(map[string]time.Time)
		if err := queryAndPrint(ctx, req, seen); err != nil {
			return err
		}

		if natsURL == "" {
			natsURL = os.Getenv("EVENTQ_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeProfileNATSURL()
		}
		if natsURL != "" {
			return watchNATS(ctx, natsURL, req, seen)
		}
		return watchPoll(ctx, interval, req, seen)
	},
}

// watchNATS re-queries on queue notifications, debounced so a burst of
// transitions causes one refresh.
func watchNATS(ctx context.Context, natsURL string, req *client.ListEventsRequest, seen map[string]time.Time) error {
	sub, err := events.NewNATSSubscriber(natsURL)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe("eventq.event.>")
	if err != nil {
		return err
	}
	defer cancel()

	fmt.Fprintln(os.Stderr, ui.RenderMuted("watching (event-driven, ctrl-c to stop)"))

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return fmt.Errorf("notification stream closed")
			}
			if debounce == nil {
				debounce = time.After(250 * time.Millisecond)
			}
		case <-debounce:
			debounce = nil
			if err := queryAndPrint(ctx, req, seen); err != nil {
				return err
			}
		}
	}
}

// watchPoll re-queries on a fixed interval.
func watchPoll(ctx context.Context, interval time.Duration, req *client.ListEventsRequest, seen map[string]time.Time) error {
	fmt.Fprintln(os.Stderr, ui.RenderMuted(fmt.Sprintf("watching (polling every %s, ctrl-c to stop)", interval)))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := queryAndPrint(ctx, req, seen); err != nil {
				return err
			}
		}
	}
}

// queryAndPrint lists matching events and prints the ones that are new or
// changed since the last query.
func queryAndPrint(ctx context.Context, req *client.ListEventsRequest, seen map[string]time.Time) error {
	resp, err := queueClient.ListEvents(ctx, req)
	if err != nil {
		return err
	}
	for i := len(resp.Events) - 1; i >= 0; i-- {
		e := resp.Events[i]
		if prev, ok := seen[e.ID]; ok && !e.UpdatedAt.After(prev) {
			continue
		}
		seen[e.ID] = e.UpdatedAt
		line := fmt.Sprintf("%s  %s  %s  %d%%",
			e.UpdatedAt.Format("15:04:05"),
			ui.RenderStatus(e.Status.String()),
			e.EventType,
			e.Progress,
		)
		if e.ErrorMessage != "" {
			line += "  " + ui.RenderMuted(e.ErrorMessage)
		}
		fmt.Printf("%s  %s\n", e.ID, line)
	}
	return nil
}

func init() {
	watchCmd.Flags().String("status", "", "filter by status (comma-separated)")
	watchCmd.Flags().String("type", "", "filter by event type (comma-separated)")
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval when NATS is unavailable")
	watchCmd.Flags().String("nats-url", "", "NATS URL for event-driven watching")
}
