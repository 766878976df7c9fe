package main

import (
	"fmt"
	"time"

	"github.com/leviFrosty/witness-work-sub000/api"
	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/leviFrosty/witness-work-sub000/store/sqlite"
	"github.com/spf13/cobra"
)

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the month summary and planned minutes",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger()
			if err != nil {
				return err
			}

			store, err := sqlite.New(opts.dbPath)
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			defer store.Close()

			handler := api.NewHandler(store, api.WithLogger(logger))
			if err := handler.Load(cmd.Context()); err != nil {
				return err
			}

			ym := calendar.Today().YearMonth()
			if year != 0 {
				ym.Year = year
			}
			if month != 0 {
				if month < 1 || month > 12 {
					return fmt.Errorf("invalid month %d (use 1-12)", month)
				}
				ym.Month = time.Month(month)
			}

			s := handler.Summary(cmd.Context(), ym)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Month:     %s\n", ym)
			fmt.Fprintf(out, "Hours:     %d (%d counted toward goal)\n", s.TotalHours, s.Adjusted.Value/60)
			if s.GoalHours > 0 {
				fmt.Fprintf(out, "Goal:      %d (%.0f%%, %.2f remaining)\n", s.GoalHours, s.Progress*100, s.HoursRemaining)
			}
			if s.Adjusted.CreditOverage > 0 {
				fmt.Fprintf(out, "Overage:   %d min credit over limit\n", s.Adjusted.CreditOverage)
			}
			fmt.Fprintf(out, "Planned:   %d min (%d to date)\n", s.PlannedMinutes, s.PlannedMinutesToDate)

			return handler.FlushCache(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default: current)")
	return cmd
}
