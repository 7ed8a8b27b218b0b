package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-status event counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := queueClient.Stats(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			data, _ := json.MarshalIndent(counts, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Pending:     %d\n", counts.Pending)
		fmt.Printf("Processing:  %d\n", counts.Processing)
		fmt.Printf("Completed:   %d\n", counts.Completed)
		fmt.Printf("Failed:      %d\n", counts.Failed)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := queueClient.Health(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(status)
		return nil
	},
}
