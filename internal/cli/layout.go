package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"monthcal/internal/calendar"
	"monthcal/internal/web"
)

func newLayoutCmd(opts *options) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the layout of one month as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			svc := newService(cfg, calendar.SourcesFromConfig(cfg), 0)

			m := svc.Now()
			if month != "" {
				m, err = time.ParseInLocation("2006-01", month, svc.Location())
				if err != nil {
					return fmt.Errorf("--month must be YYYY-MM: %w", err)
				}
			}

			ml, err := svc.Month(cmd.Context(), m.Year(), m.Month())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(web.NewMonthDTO(ml, m, cfg.WeekStart))
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to lay out as YYYY-MM (default: current month)")
	return cmd
}
