package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sablehq/eventq/internal/client"
)

var emitCmd = &cobra.Command{
	Use:   "emit <event-type>",
	Short: "Emit a new event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := cmd.Flags().GetString("payload")
		priority, _ := cmd.Flags().GetInt("priority")
		delay, _ := cmd.Flags().GetDuration("delay")
		at, _ := cmd.Flags().GetString("at")
		req := &client.EmitEventRequest{
			EventType: args[0],
			Priority:  priority,
		}
		if cmd.Flags().Changed("max-retries") {
			maxRetries, _ := cmd.Flags().GetInt("max-retries")
			req.MaxRetries = &maxRetries
		}
		if payload != "" {
			if !json.Valid([]byte(payload)) {
				fmt.Fprintln(os.Stderr, "Error: --payload must be valid JSON")
				os.Exit(1)
			}
			req.Payload = json.RawMessage(payload)
		}
		if at != "" {
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: --at must be RFC3339: %v\n", err)
				os.Exit(1)
			}
			req.ScheduledAt = &t
		} else if delay > 0 {
			t := time.Now().Add(delay)
			req.ScheduledAt = &t
		}

		event, err := queueClient.EmitEvent(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printEventJSON(event)
		} else {
			fmt.Printf("Emitted %s (%s)\n", event.ID, event.EventType)
		}
		return nil
	},
}

func init() {
	emitCmd.Flags().String("payload", "", "JSON payload for the event")
	emitCmd.Flags().Int("priority", 0, "claim priority (higher first)")
	emitCmd.Flags().Duration("delay", 0, "delay before the event becomes claimable")
	emitCmd.Flags().String("at", "", "RFC3339 time the event becomes claimable")
	emitCmd.Flags().Int("max-retries", 0, "retry budget (0 = fail on first attempt; unset = server default)")
}
