package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/dsm-insight/internal/cli"
	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/config"
	"github.com/Veraticus/dsm-insight/internal/model"
	"github.com/Veraticus/dsm-insight/internal/storage"
)

// currentConfig returns the configuration resolved by initConfig, loading it
// on demand for commands invoked without the root pre-run.
func currentConfig() (*config.Config, error) {
	if appCfg != nil {
		return appCfg, nil
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	appCfg = cfg
	return cfg, nil
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	cfg, err := currentConfig()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadRecords opens storage and returns every record enriched with site mappings.
func loadRecords(ctx context.Context) ([]model.Record, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	records, err := store.EnrichedRecords(ctx)
	if err != nil {
		return nil, err
	}
	common.LogDebug("Loaded records", common.Fields{"records": len(records), "path": store.Path()})
	return records, nil
}

// addFilterFlags registers the repeatable --filter flag.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("filter", "f", nil,
		"restrict records, as dimension=value[,value...] (repeatable; dimensions: "+dimensionNames()+")")
}

func dimensionNames() string {
	names := make([]string, len(model.Dimensions))
	for i, d := range model.Dimensions {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

// filterFromFlags builds a FilterSpec from --filter values. Repeating a
// dimension adds to its accepted values.
func filterFromFlags(cmd *cobra.Command) (model.FilterSpec, error) {
	raw, err := cmd.Flags().GetStringArray("filter")
	if err != nil {
		return nil, err
	}
	return parseFilters(raw)
}

func parseFilters(raw []string) (model.FilterSpec, error) {
	spec := model.FilterSpec{}
	for _, item := range raw {
		name, values, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("invalid filter %q: expected dimension=value", item)
		}
		dim, err := model.ParseDimension(name)
		if err != nil {
			return nil, err
		}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				spec[string(dim)] = append(spec[string(dim)], v)
			}
		}
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// addThresholdFlag registers --threshold defaulting to the configured risk threshold.
func addThresholdFlag(cmd *cobra.Command) {
	cmd.Flags().Float64("threshold", -1, "risk threshold in percent (default from report.risk_threshold)")
}

func thresholdFromFlags(cmd *cobra.Command, cfg *config.Config) (float64, error) {
	v, err := cmd.Flags().GetFloat64("threshold")
	if err != nil {
		return 0, err
	}
	if !cmd.Flags().Changed("threshold") {
		return cfg.Report.RiskThreshold, nil
	}
	if v < 0 {
		return 0, fmt.Errorf("threshold must be non-negative, got %v", v)
	}
	return v, nil
}

// emit writes v in the requested structured format, or calls table for the
// styled terminal rendering.
func emit(cmd *cobra.Command, v any, table func(*cli.Formatter) error) error {
	raw, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := cli.ParseFormat(raw)
	if err != nil {
		return err
	}
	if format == cli.FormatTable {
		return table(cli.NewFormatter(os.Stdout))
	}
	return cli.Encode(os.Stdout, format, v)
}
