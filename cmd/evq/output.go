package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sablehq/eventq/internal/model"
	"github.com/sablehq/eventq/internal/ui"
)

const timeFormat = "2006-01-02 15:04:05"

func printEventJSON(event *model.Event) {
	data, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printEventTable(event *model.Event) {
	fmt.Printf("ID:           %s\n", event.ID)
	fmt.Printf("Type:         %s\n", event.EventType)
	fmt.Printf("Status:       %s\n", ui.RenderStatus(event.Status.String()))
	fmt.Printf("Priority:     %d\n", event.Priority)
	fmt.Printf("Progress:     %d%%\n", event.Progress)
	fmt.Printf("Retries:      %d/%d\n", event.RetryCount, event.MaxRetries)
	fmt.Printf("Scheduled At: %s\n", event.ScheduledAt.Format(timeFormat))
	if event.ProcessingStartedAt != nil {
		fmt.Printf("Started At:   %s\n", event.ProcessingStartedAt.Format(timeFormat))
	}
	if event.CompletedAt != nil {
		fmt.Printf("Completed At: %s\n", event.CompletedAt.Format(timeFormat))
	}
	if event.ErrorMessage != "" {
		fmt.Printf("Error:        %s\n", event.ErrorMessage)
	}
	if len(event.Payload) > 0 {
		fmt.Printf("Payload:      %s\n", event.Payload)
	}
	if len(event.Result) > 0 {
		fmt.Printf("Result:       %s\n", event.Result)
	}
	fmt.Printf("Created At:   %s\n", event.CreatedAt.Format(timeFormat))
	fmt.Printf("Updated At:   %s\n", event.UpdatedAt.Format(timeFormat))
}

func printEventListJSON(events []*model.Event) {
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printEventListTable(events []*model.Event, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTYPE\tPRIORITY\tPROGRESS\tRETRIES\tSCHEDULED")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d%%\t%d/%d\t%s\n",
			e.ID,
			ui.RenderStatus(e.Status.String()),
			e.EventType,
			e.Priority,
			e.Progress,
			e.RetryCount,
			e.MaxRetries,
			e.ScheduledAt.Format(timeFormat),
		)
	}
	w.Flush()
	fmt.Printf("\n%d events (%d total)\n", len(events), total)
}
