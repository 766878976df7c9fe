package main

import (
	"fmt"

	"github.com/leviFrosty/witness-work-sub000/store/sqlite"
	"github.com/spf13/cobra"
)

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all reports, plans, preferences and cached values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset %s without --yes", opts.dbPath)
			}

			logger, err := opts.logger()
			if err != nil {
				return err
			}

			store, err := sqlite.New(opts.dbPath)
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			defer store.Close()

			if err := store.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("resetting database: %w", err)
			}

			logger.Info("database reset", "db", opts.dbPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", opts.dbPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all data")
	return cmd
}
