package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Requeue a failed event with a fresh retry budget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		event, err := queueClient.RetryEvent(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printEventJSON(event)
		} else {
			fmt.Printf("Requeued %s (%s)\n", event.ID, event.EventType)
		}
		return nil
	},
}
