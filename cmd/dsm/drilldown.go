package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dsm-insight/internal/cli"
	"github.com/Veraticus/dsm-insight/internal/ingest"
	"github.com/Veraticus/dsm-insight/internal/report"
)

func drilldownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drilldown",
		Short: "Focus the filtered records on one state or a set of sites",
		Example: `  # KPIs, worst sites and technology mix for Gujarat in FY2026
  dsm drilldown state GJ -f fiscal_year=FY2026

  # Compare three sites side by side
  dsm drilldown sites ALPHA BETA GAMMA`,
	}

	cmd.AddCommand(drilldownStateCmd())
	cmd.AddCommand(drilldownSitesCmd())

	return cmd
}

func drilldownStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state <code>",
		Short: "Drill into one state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			records, err := loadRecords(cmd.Context())
			if err != nil {
				return err
			}
			d, err := report.DrillDownByState(records, spec, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return emit(cmd, d, func(f *cli.Formatter) error {
				return f.StateDrillDown(d)
			})
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func drilldownSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites <site>...",
		Short: "Compare sites in the order given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			records, err := loadRecords(cmd.Context())
			if err != nil {
				return err
			}
			c, err := report.DrillDownByComparisonSites(records, spec, cleanSites(args))
			if err != nil {
				return err
			}
			return emit(cmd, c, func(f *cli.Formatter) error {
				return f.Comparison(c)
			})
		},
	}
	addFilterFlags(cmd)
	return cmd
}

// cleanSites normalizes site arguments the way imported site names are.
func cleanSites(args []string) []string {
	r := ingest.NewReader(ingest.DefaultOptions())
	out := make([]string, 0, len(args))
	for _, a := range args {
		if s := r.CleanSite(a); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <site>",
		Short: "Show a site's attributes and lifetime KPIs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords(cmd.Context())
			if err != nil {
				return err
			}
			site := args[0]
			if cleaned := cleanSites(args); len(cleaned) == 1 {
				site = cleaned[0]
			}
			p, err := report.Profile(records, site)
			if err != nil {
				return err
			}
			return emit(cmd, p, func(f *cli.Formatter) error {
				return f.Profile(p)
			})
		},
	}
}
