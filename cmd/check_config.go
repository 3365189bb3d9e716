package cmd

import (
	"errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ad-monitor/bootstrap"
	"ad-monitor/config"
	"ad-monitor/filter"
)

var errInvalidConfig = errors.New("configuration is invalid")

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration document",
	Long: `Load and validate the configuration document without starting anything.

Every invalid field is listed. The exit status is non-zero when the
document cannot be used.`,
	RunE: runCheckConfig,
}

func init() {
	rootCmd.AddCommand(checkConfigCmd)
}

func configPath() string {
	if p := viper.GetString("config"); p != "" {
		return p
	}
	return config.DefaultConfigPath
}

func runCheckConfig(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	path := configPath()

	cfg, _, err := bootstrap.LoadDocument(path, false)
	if err != nil {
		var validationErr *config.ValidationError
		if !errors.As(err, &validationErr) {
			p.Error("%s: %v", path, err)
			return errInvalidConfig
		}
		p.Error("%s has %d invalid field(s):", path, len(validationErr.Errors))
		fields := make([]string, 0, len(validationErr.Errors))
		for field := range validationErr.Errors {
			fields = append(fields, field)
		}
		slices.Sort(fields)
		for _, field := range fields {
			p.Error("  %s", validationErr.Errors[field])
		}
		return errInvalidConfig
	}

	p.Success("%s is valid", path)
	p.Info("Listening on %s, refreshing every %d minute(s)",
		bootstrap.ListenAddress(cfg.ServerIP, cfg.ServerPort), cfg.RefreshIntervalMinutes)
	p.Info("Retention %d day(s), feed window %d day(s)", cfg.RetentionDays, cfg.RecentWindowDays)

	urls := cfg.URLs()
	if len(urls) == 0 {
		p.Warning("no URLs are configured; cycles will be skipped")
		return nil
	}

	rows := make([][]string, 0, len(urls))
	for _, u := range urls {
		levels := filter.OrderedLevels(cfg.FiltersFor(u))
		if len(levels) == 0 {
			rows = append(rows, []string{u, "-", "(accept all)"})
			continue
		}
		for _, level := range levels {
			rows = append(rows, []string{u, level.Name, strings.Join(level.Keywords, ", ")})
		}
	}
	p.Header("Monitored URLs")
	return renderTable(cmd.OutOrStdout(), []string{"URL", "LEVEL", "KEYWORDS"}, rows)
}
