package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dsm-insight/internal/cli"
	"github.com/Veraticus/dsm-insight/internal/ingest"
)

func mappingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Manage site reference attributes",
		Long: `Site mappings supply state, technology, connectivity, category, QCA and
capacity for sites whose imported records leave them blank. Values already
present on a record are never replaced.`,
	}

	cmd.AddCommand(importMappingCmd())
	cmd.AddCommand(listMappingCmd())

	return cmd
}

func importMappingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Load or update site mappings from CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mappings, err := ingest.NewReader(ingest.DefaultOptions()).ReadMappingFile(ctx, args[0])
			if err != nil {
				return err
			}
			if len(mappings) == 0 {
				fmt.Println(cli.FormatWarning("No site rows found in " + args[0])) //nolint:forbidigo // User-facing output
				return nil
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveSiteMappings(ctx, mappings); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved %d site mappings", len(mappings)))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func listMappingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored site mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			mappings, err := store.SiteMappings(ctx)
			if err != nil {
				return err
			}
			return emit(cmd, mappings, func(f *cli.Formatter) error {
				return f.SiteMappings(mappings)
			})
		},
	}
}
