package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dsm-insight/internal/cli"
	"github.com/Veraticus/dsm-insight/internal/storage"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage database checkpoints",
		Long: `Create, list, restore, and delete database checkpoints.

Checkpoints save the current state of the database before a large import or a
rollback, and let you return to it if the result is not what you expected.`,
		Example: `  # Snapshot before loading a new fiscal year
  dsm checkpoint create --tag pre-fy27

  # List all checkpoints
  dsm checkpoint list

  # Restore from a checkpoint
  dsm checkpoint restore pre-fy27

  # Delete an old checkpoint
  dsm checkpoint delete pre-fy26`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(restoreCheckpointCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

// withCheckpoints opens storage and hands fn a checkpoint manager over it.
func withCheckpoints(cmd *cobra.Command, fn func(*storage.CheckpointManager) error) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager, err := store.NewCheckpointManager()
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	return fn(manager)
}

func createCheckpointCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCheckpoints(cmd, func(manager *storage.CheckpointManager) error {
				info, err := manager.Create(cmd.Context(), tag, description)
				if err != nil {
					return fmt.Errorf("failed to create checkpoint: %w", err)
				}
				return emit(cmd, info, func(_ *cli.Formatter) error {
					//nolint:forbidigo // User-facing output
					fmt.Printf("%s Created checkpoint %s (%d records, %d mappings)\n",
						cli.SuccessStyle.Render(cli.SuccessIcon),
						cli.InfoStyle.Render(info.ID),
						info.Records, info.Mappings)
					if info.Description != "" {
						fmt.Printf("  Description: %s\n", info.Description) //nolint:forbidigo // User-facing output
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "checkpoint name (timestamped if omitted)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description of the checkpoint")

	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCheckpoints(cmd, func(manager *storage.CheckpointManager) error {
				list, err := manager.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list checkpoints: %w", err)
				}
				return emit(cmd, list, func(f *cli.Formatter) error {
					return f.Checkpoints(list)
				})
			})
		},
	}
}

func restoreCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the database with a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			return withCheckpoints(cmd, func(manager *storage.CheckpointManager) error {
				info, err := manager.Info(ctx, id)
				if err != nil {
					return err
				}

				if !force {
					question := fmt.Sprintf("Restore %s from %s (%d records)? Current data will be replaced.",
						info.ID, info.CreatedAt.Local().Format("2006-01-02 15:04"), info.Records)
					ok, err := cli.NewConfirmer(os.Stdin, os.Stdout).Confirm(ctx, question)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Println(cli.FormatInfo("Restore cancelled")) //nolint:forbidigo // User-facing output
						return nil
					}
				}

				if err := manager.Restore(ctx, id); err != nil {
					return fmt.Errorf("failed to restore checkpoint: %w", err)
				}
				fmt.Println(cli.FormatSuccess("Restored checkpoint " + id)) //nolint:forbidigo // User-facing output
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "F", false, "skip the confirmation prompt")

	return cmd
}

func deleteCheckpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCheckpoints(cmd, func(manager *storage.CheckpointManager) error {
				if err := manager.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("failed to delete checkpoint: %w", err)
				}
				fmt.Println(cli.FormatSuccess("Deleted checkpoint " + args[0])) //nolint:forbidigo // User-facing output
				return nil
			})
		},
	}
}
