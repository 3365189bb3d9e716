// Package cmd contains the ad-monitor command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ad-monitor/bootstrap"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd serves the feed and runs discovery cycles when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "ad-monitor",
	Short: "Marketplace listing monitor with an RSS feed",
	Long: `ad-monitor periodically fetches marketplace search pages, keeps the
listings that pass the configured keyword filters and publishes the
recently seen ones as an RSS feed.

Example usage:
  ad-monitor                          # Same as "ad-monitor serve"
  ad-monitor serve --config ads.json  # Serve with a specific document
  ad-monitor check-config             # Validate the configuration document
  ad-monitor listings --days 1        # Print listings checked today
  ad-monitor run-once                 # Run a single discovery cycle`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version printed by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "configuration document (default $AD_MONITOR_CONFIG or config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default $LOG_LEVEL)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindEnv("config", "AD_MONITOR_CONFIG")
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
}

// runtimeOptions resolves flags and environment into bootstrap options.
func runtimeOptions() bootstrap.Options {
	return bootstrap.Options{
		ConfigPath: viper.GetString("config"),
		LogLevel:   viper.GetString("log_level"),
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
