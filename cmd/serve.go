package cmd

import (
	"github.com/spf13/cobra"

	"ad-monitor/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the feed and run discovery cycles until interrupted",
	Long: `Start the HTTP server (/rss, /health, /edit, /api/config, /metrics) and
run a discovery cycle immediately and then every refresh interval.

A missing configuration document is created with defaults.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	return bootstrap.Run(commandContext(cmd), runtimeOptions())
}
