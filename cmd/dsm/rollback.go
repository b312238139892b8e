package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dsm-insight/internal/cli"
)

func rollbackCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rollback <batch-id>",
		Short: "Remove the records last written by an import batch",
		Long: `Remove every record whose latest write came from the given batch. Batch
IDs are listed by "dsm logs". An automatic checkpoint is taken first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if !force {
				ok, err := cli.NewConfirmer(os.Stdin, os.Stdout).Confirm(ctx, "Remove records from batch "+args[0]+"?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println(cli.FormatInfo("Rollback cancelled")) //nolint:forbidigo // User-facing output
					return nil
				}
			}

			manager, err := store.NewCheckpointManager()
			if err != nil {
				return fmt.Errorf("failed to create checkpoint manager: %w", err)
			}
			if _, err := manager.AutoCheckpoint(ctx, "rollback"); err != nil {
				return err
			}

			removed, err := store.DeleteBatch(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Removed %d records", removed))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "F", false, "skip the confirmation prompt")

	return cmd
}
