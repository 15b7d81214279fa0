package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"monthcal/internal/calendar"
	appLog "monthcal/internal/log"
	"monthcal/internal/scheduler"
	"monthcal/internal/web"
)

func newServeCmd(opts *options) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve month layouts over HTTP and refresh appointments on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"week_start", cfg.WeekStart,
				"refresh", cfg.RefreshCron,
				"max_layer", cfg.MaxLayer,
				"ics_count", len(cfg.ICS),
				"caldav_count", len(cfg.CalDAV),
			)

			loc, _ := cfg.Location()
			interval, err := scheduler.Interval(cfg.RefreshCron, loc, time.Now())
			if err != nil {
				return err
			}

			// Cached appointments stay valid for two refresh periods.
			svc := newService(cfg, calendar.SourcesFromConfig(cfg), 2*interval)
			sched, err := scheduler.New(cfg.RefreshCron, svc.Location(), svc)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), sched, web.NewServer(cfg, svc))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}

// runServe runs the scheduler and the HTTP server until ctx is canceled or
// either of them fails.
func runServe(ctx context.Context, sched *scheduler.Scheduler, srv *web.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer sched.Stop()
		return sched.Start(ctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	appLog.Info("monthcal exiting")
	return err
}
