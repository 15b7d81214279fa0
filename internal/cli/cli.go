// Package cli implements the monthcal command-line interface.
//
// # Commands
//
//   - serve:  run the HTTP API with a cron-driven appointment refresh
//   - layout: print one month's layout as JSON
//
// All commands accept --config and --verbose (-v).
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"monthcal/internal/calendar"
	"monthcal/internal/config"
	appLog "monthcal/internal/log"
)

const defaultConfigPath = "/etc/monthcal/config.yaml"

var version = "dev"

// SetVersion sets the string printed by --version. main calls it with the
// value injected via ldflags.
func SetVersion(v string) { version = v }

// options holds the persistent flag values shared by all subcommands.
type options struct {
	configPath string
	verbose    bool
}

// Execute builds the command tree and runs it with ctx.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "monthcal",
		Short:        "monthcal lays out calendar appointments on a month grid",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "path to config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newLayoutCmd(opts))
	return root
}

// loadConfig reads the config file and applies the log level. --verbose
// wins over log_level.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", o.configPath, err)
	}

	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	if o.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}
	return cfg, nil
}

// newService wires the configured sources into a calendar service. A zero
// cacheTTL keeps the service default.
func newService(cfg *config.Config, sources []calendar.Source, cacheTTL time.Duration) *calendar.Service {
	loc, err := cfg.Location()
	if err != nil {
		appLog.Warn("invalid timezone, using local", "timezone", cfg.Timezone, "err", err)
	}
	return calendar.New(sources, calendar.Options{
		Location:  loc,
		WeekStart: cfg.FirstWeekday(),
		MaxLayer:  cfg.MaxLayer,
		CacheTTL:  cacheTTL,
	})
}
