package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dsm-insight/internal/cli"
	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
	"github.com/Veraticus/dsm-insight/internal/tui"
	"github.com/Veraticus/dsm-insight/internal/tui/themes"
)

func exploreCmd() *cobra.Command {
	var (
		session string
		theme   string
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Interactively drill into states and compare sites",
		Long: `Open a terminal dashboard over the filtered records.

Choose a state to drill into it, or add sites to compare them. With --session
the selection is saved under that name after every change and restored the
next time the same session is opened.`,
		Example: `  dsm explore -f fiscal_year=FY2026
  dsm explore --session west-review --theme mocha`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := currentConfig()
			if err != nil {
				return err
			}
			spec, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.EnrichedRecords(ctx)
			if err != nil {
				return err
			}

			opts := []tui.Option{
				tui.WithTheme(themes.ByName(theme)),
				tui.WithFilter(spec),
				tui.WithThresholds(cfg.Report.RiskThreshold, cfg.Report.LineBoundary),
				tui.WithRecords(records),
			}

			if session != "" {
				sel, err := store.LoadSelection(ctx, session)
				switch {
				case err == nil:
					opts = append(opts, tui.WithSelection(sel))
				case errors.Is(err, common.ErrNotFound):
					slog.Debug("Starting new session", "session", session)
				default:
					return err
				}
				opts = append(opts, tui.WithSave(func(ctx context.Context, sel model.Selection) error {
					return store.SaveSelection(ctx, session, sel)
				}))
			}

			final, err := tui.Run(ctx, opts...)
			if err != nil {
				return err
			}
			if session != "" {
				//nolint:forbidigo // User-facing output
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved session %s (state %q, %d sites)",
					session, final.State, len(final.Sites))))
			}
			return nil
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().StringVar(&session, "session", "", "name under which the selection is saved and restored")
	cmd.Flags().StringVar(&theme, "theme", "default", "color theme (default, mocha)")

	return cmd
}
