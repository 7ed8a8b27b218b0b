package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sablehq/eventq/internal/client"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List events",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		eventType, _ := cmd.Flags().GetString("type")
		sortBy, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		req := &client.ListEventsRequest{
			Sort:   sortBy,
			Limit:  limit,
			Offset: offset,
		}
		if status != "" {
			req.Status = strings.Split(status, ",")
		}
		if eventType != "" {
			req.Type = strings.Split(eventType, ",")
		}

		resp, err := queueClient.ListEvents(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printEventListJSON(resp.Events)
		} else {
			printEventListTable(resp.Events, resp.Total)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("status", "", "filter by status (comma-separated)")
	listCmd.Flags().String("type", "", "filter by event type (comma-separated)")
	listCmd.Flags().String("sort", "", "sort column, prefix with - for descending (e.g. -priority)")
	listCmd.Flags().Int("limit", 50, "maximum number of events")
	listCmd.Flags().Int("offset", 0, "number of events to skip")
}
