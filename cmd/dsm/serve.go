package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Veraticus/dsm-insight/internal/api"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over a read-only JSON API",
		Long: `Serve the stored records over HTTP. Every endpoint accepts dimension=value
query parameters as filters, e.g.

  GET /api/v1/summary/state?fiscal_year=FY2026&threshold=3
  GET /api/v1/drilldown/sites?compare=ALPHA&compare=BETA`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := currentConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Serve.Addr
			}
			if cfg.Logging.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			settings := api.Settings{
				Frequency:     cfg.Report.Frequency,
				QCAMaster:     cfg.Portfolio.QCAMaster,
				RiskThreshold: cfg.Report.RiskThreshold,
				LineBoundary:  cfg.Report.LineBoundary,
				ParetoLimit:   cfg.Report.ParetoLimit,
			}
			return api.Serve(ctx, addr, api.NewRouter(api.NewHandler(store, settings)))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (default from serve.addr)")

	return cmd
}
