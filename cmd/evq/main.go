package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sablehq/eventq/internal/client"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool

	queueClient client.QueueClient
)

func defaultServerURL() string {
	if s := os.Getenv("EVENTQ_SERVER"); s != "" {
		return s
	}
	if u := activeProfileURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultAuthToken() string {
	if t := os.Getenv("EVENTQ_AUTH_TOKEN"); t != "" {
		return t
	}
	return activeProfileToken()
}

var rootCmd = &cobra.Command{
	Use:   "evq <command>",
	Short: "CLI client for the eventq service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		queueClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if queueClient != nil {
			queueClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "eventq server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultAuthToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(profileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
