package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dsm-insight/internal/cli"
	"github.com/Veraticus/dsm-insight/internal/model"
	"github.com/Veraticus/dsm-insight/internal/report"
)

func kpiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Show headline KPIs for the filtered records",
		Example: `  dsm kpi
  dsm kpi -f fiscal_year=FY2026 -f state=GJ,RJ
  dsm kpi -f technology=Solar -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			records, err := loadRecords(cmd.Context())
			if err != nil {
				return err
			}
			filtered, err := report.Apply(records, spec)
			if err != nil {
				return err
			}
			kpis, err := report.Compute(filtered)
			if err != nil {
				return err
			}
			return emit(cmd, kpis, func(f *cli.Formatter) error {
				return f.KPIs(fmt.Sprintf("KPIs (%d records)", len(filtered)), kpis)
			})
		},
	}
	addFilterFlags(cmd)
	return cmd
}

// portfolioView bundles the overview screen.
type portfolioView struct {
	Totals report.Portfolio     `json:"totals" yaml:"totals"`
	Pareto []model.GroupSummary `json:"pareto" yaml:"pareto"`
	QCA    []model.GroupSummary `json:"qca" yaml:"qca"`
}

func portfolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show portfolio totals, the worst sites by penalty and the QCA summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := currentConfig()
			if err != nil {
				return err
			}
			spec, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			threshold, err := thresholdFromFlags(cmd, cfg)
			if err != nil {
				return err
			}
			records, err := loadRecords(cmd.Context())
			if err != nil {
				return err
			}
			filtered, err := report.Apply(records, spec)
			if err != nil {
				return err
			}

			totals, err := report.Totals(filtered)
			if err != nil {
				return err
			}
			bySite, err := report.Summarize(filtered, model.GroupSite, threshold)
			if err != nil {
				return err
			}
			byQCA, err := report.Summarize(filtered, model.GroupQCA, threshold)
			if err != nil {
				return err
			}

			view := portfolioView{
				Totals: totals,
				Pareto: report.TopN(bySite, model.MetricPenalty, cfg.Report.ParetoLimit),
				QCA:    report.Complete(byQCA, cfg.Portfolio.QCAMaster, threshold),
			}
			return emit(cmd, view, func(f *cli.Formatter) error {
				if err := f.Portfolio(view.Totals); err != nil {
					return err
				}
				if err := f.Summary(model.GroupSite, view.Pareto); err != nil {
					return err
				}
				return f.Summary(model.GroupQCA, view.QCA)
			})
		},
	}
	addFilterFlags(cmd)
	addThresholdFlag(cmd)
	return cmd
}

func summaryCmd() *cobra.Command {
	var (
		top    int
		metric string
	)

	cmd := &cobra.Command{
		Use:   "summary <state|site|category|qca|technology>",
		Short: "Group the filtered records and classify each group's risk",
		Example: `  dsm summary state
  dsm summary site --top 10 --metric penalty
  dsm summary qca --threshold 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := currentConfig()
			if err != nil {
				return err
			}
			key, err := model.ParseGroupKey(args[0])
			if err != nil {
				return err
			}
			spec, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			threshold, err := thresholdFromFlags(cmd, cfg)
			if err != nil {
				return err
			}
			if top < 0 {
				return fmt.Errorf("--top must be non-negative, got %d", top)
			}
			m, err := model.ParseMetric(metric)
			if err != nil {
				return err
			}

			records, err := loadRecords(cmd.Context())
			if err != nil {
				return err
			}
			filtered, err := report.Apply(records, spec)
			if err != nil {
				return err
			}
			rows, err := report.Summarize(filtered, key, threshold)
			if err != nil {
				return err
			}
			if key == model.GroupQCA {
				rows = report.Complete(rows, cfg.Portfolio.QCAMaster, threshold)
			}
			if top > 0 {
				rows = report.TopN(rows, m, top)
			}

			return emit(cmd, rows, func(f *cli.Formatter) error {
				return f.Summary(key, rows)
			})
		},
	}

	addFilterFlags(cmd)
	addThresholdFlag(cmd)
	cmd.Flags().IntVarP(&top, "top", "n", 0, "keep only the top N groups by --metric")
	cmd.Flags().StringVarP(&metric, "metric", "m", string(model.MetricPenalty), "ranking metric (generation, revenue, penalty, loss_pct)")

	return cmd
}

func trendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show KPIs per month or fiscal quarter",
		Example: `  dsm trend
  dsm trend -f frequency=quarter -f fiscal_year=FY2026`,
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
			freq := cfg.Report.Frequency
			requested, set, err := spec.RequestedFrequency()
			if err != nil {
				return err
			}
			if set {
				freq = requested
			}

			records, err := loadRecords(cmd.Context())
			if err != nil {
				return err
			}
			filtered, err := report.Apply(records, spec)
			if err != nil {
				return err
			}
			points, err := report.Trend(filtered, freq, cfg.Report.LineBoundary)
			if err != nil {
				return err
			}
			return emit(cmd, points, func(f *cli.Formatter) error {
				return f.Trend(points)
			})
		},
	}
	addFilterFlags(cmd)
	return cmd
}
