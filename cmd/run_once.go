package cmd

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ad-monitor/bootstrap"
)

var runOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Run a single discovery cycle and exit",
	Long: `Fetch every configured URL once, store the listings that pass the
filters and prune expired ones. Suitable for cron.`,
	RunE: runRunOnce,
}

func init() {
	rootCmd.AddCommand(runOnceCmd)
}

func runRunOnce(cmd *cobra.Command, args []string) error {
	report, err := bootstrap.RunOnce(commandContext(cmd), runtimeOptions())
	if err != nil && report.CycleID == "" {
		return err
	}

	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if report.Skipped {
		p.Warning("no URLs are configured; nothing to do")
		return nil
	}

	rows := make([][]string, 0, len(report.Workers))
	for _, w := range report.Workers {
		status := "ok"
		if w.InitFailed {
			status = "no session"
		}
		rows = append(rows, []string{
			strconv.Itoa(w.Worker),
			status,
			strconv.Itoa(w.URLs),
			strconv.Itoa(w.Fetched),
			strconv.Itoa(w.FetchFailed),
			strconv.Itoa(w.Filtered),
			strconv.Itoa(w.New),
			strconv.Itoa(w.Updated),
		})
	}
	p.Header("Cycle " + report.CycleID)
	if tableErr := renderTable(cmd.OutOrStdout(),
		[]string{"WORKER", "STATUS", "URLS", "FETCHED", "FAILED", "FILTERED", "NEW", "UPDATED"}, rows); tableErr != nil {
		return errors.Join(err, tableErr)
	}

	if err != nil {
		p.Error("cycle interrupted: %v", err)
		return err
	}
	p.Success("%d new listing(s), %d pruned in %s", report.New(), report.Pruned, report.Duration.Round(time.Millisecond))
	return nil
}
