package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/dsm-insight/internal/cli"
)

func logsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			logs, err := store.IngestionLogs(ctx, limit)
			if err != nil {
				return err
			}
			return emit(cmd, logs, func(f *cli.Formatter) error {
				return f.IngestionLogs(logs)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of imports to show")

	return cmd
}
