package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ad-monitor/bootstrap"
)

var listingsCmd = &cobra.Command{
	Use:     "listings",
	Aliases: []string{"ls"},
	Short:   "Print recently checked listings",
	Long: `Print the listings whose last check falls inside the window, most
recently checked first. This is the same set the RSS feed publishes.

Examples:
  ad-monitor listings             # Use the document's recent_window_days
  ad-monitor listings --days 1    # Only listings checked in the last day
  ad-monitor listings --json      # Output as JSON`,
	RunE: runListings,
}

func init() {
	rootCmd.AddCommand(listingsCmd)

	listingsCmd.Flags().Int("days", 0, "window in days (default: recent_window_days)")
	listingsCmd.Flags().Bool("json", false, "output as JSON")
}

func runListings(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	days, _ := cmd.Flags().GetInt("days")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	opts := runtimeOptions()
	if opts.LogLevel == "" {
		opts.LogLevel = "error"
	}
	rt, err := bootstrap.NewRuntime(ctx, opts, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.Config.Get()
	repo, err := bootstrap.OpenStore(ctx, rt.Settings.Store, cfg, rt.Logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = repo.Close()
	}()

	window := cfg.RecentWindow()
	if days > 0 {
		window = time.Duration(days) * 24 * time.Hour
	}
	listings, err := repo.QueryRecent(ctx, window)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}

	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if len(listings) == 0 {
		p.Info("No listings checked in the last %s", window)
		return nil
	}

	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, []string{
			shortID(l.AdID),
			l.Title,
			l.Price,
			l.FirstSeen.Local().Format(time.DateTime),
			l.LastChecked.Local().Format(time.DateTime),
			l.URL,
		})
	}
	p.Header(fmt.Sprintf("%d listing(s) checked in the last %s", len(listings), window))
	return renderTable(cmd.OutOrStdout(), []string{"ID", "TITLE", "PRICE", "FIRST SEEN", "LAST CHECKED", "URL"}, rows)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
