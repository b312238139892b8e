package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/dsm-insight/internal/cli"
	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/ingest"
	"github.com/Veraticus/dsm-insight/internal/storage"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>...",
		Short: "Import monthly DSM records from CSV",
		Long: `Import monthly DSM records from one or more CSV exports.

Headers are matched case-insensitively against the canonical column names and
their known aliases. Rows without a site or month are dropped; repeated
site-month rows keep the last occurrence. Existing site-month records are
replaced unless --overwrite=false is given.`,
		Example: `  # Import a single export
  dsm import fy26-april.csv

  # Import several months and fill site attributes from a mapping file
  dsm import apr.csv may.csv --mapping sites.csv

  # Check the header mapping without writing anything
  dsm import jun.csv --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("mapping", "", "site mapping CSV to load before importing (default from ingest.mapping_file)")
	cmd.Flags().Bool("overwrite", true, "replace records that already exist for a site and month")
	cmd.Flags().Bool("checkpoint", false, "create an automatic checkpoint before writing")
	cmd.Flags().Bool("dry-run", false, "parse and report without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	overwrite := cfg.Ingest.Overwrite
	if cmd.Flags().Changed("overwrite") {
		overwrite, _ = cmd.Flags().GetBool("overwrite")
	}
	checkpoint := cfg.Ingest.Checkpoint
	if cmd.Flags().Changed("checkpoint") {
		checkpoint, _ = cmd.Flags().GetBool("checkpoint")
	}
	mappingFile := cfg.Ingest.MappingFile
	if cmd.Flags().Changed("mapping") {
		mappingFile, _ = cmd.Flags().GetString("mapping")
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	handler := cli.NewInterruptHandler(os.Stderr, "Import")
	handler.SetHint("Files already imported are saved; the interrupted file was rolled back.")
	ctx := handler.HandleInterrupts(cmd.Context())

	reader := ingest.NewReader(ingest.DefaultOptions())

	if dryRun {
		for _, path := range args {
			result, err := readWithProgress(ctx, reader, path)
			if err != nil {
				return err
			}
			if err := emit(cmd, result.Header, func(_ *cli.Formatter) error {
				return printDryRun(path, result)
			}); err != nil {
				return err
			}
		}
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if checkpoint {
		manager, err := store.NewCheckpointManager()
		if err != nil {
			return fmt.Errorf("failed to create checkpoint manager: %w", err)
		}
		info, err := manager.AutoCheckpoint(ctx, "import")
		if err != nil {
			return fmt.Errorf("failed to create checkpoint: %w", err)
		}
		fmt.Println(cli.FormatInfo("Created checkpoint " + info.ID)) //nolint:forbidigo // User-facing output
	}

	if mappingFile != "" {
		mappings, err := reader.ReadMappingFile(ctx, mappingFile)
		if err != nil {
			return fmt.Errorf("failed to read site mappings: %w", err)
		}
		if len(mappings) > 0 {
			if err := store.SaveSiteMappings(ctx, mappings); err != nil {
				return err
			}
			slog.Info("Loaded site mappings", "file", mappingFile, "sites", len(mappings))
		}
	}

	all := make([]*storage.IngestStats, 0, len(args))
	for _, path := range args {
		result, err := readWithProgress(ctx, reader, path)
		if err != nil {
			if handler.WasInterrupted() {
				return nil
			}
			return err
		}
		if len(result.Records) == 0 {
			fmt.Println(cli.FormatWarning(filepath.Base(path) + ": no importable rows")) //nolint:forbidigo // User-facing output
			continue
		}

		stats, err := store.SaveRecords(ctx, result.Records, storage.SaveOptions{
			Source:    filepath.Base(path),
			Overwrite: overwrite,
		})
		if err != nil {
			if handler.WasInterrupted() {
				return nil
			}
			common.LogError(err, "Import failed", common.Fields{"file": path})
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		all = append(all, stats)
		common.LogInfo("Imported file", common.Fields{
			"file":     path,
			"batch":    stats.BatchID,
			"inserted": stats.Inserted,
			"updated":  stats.Updated,
			"skipped":  stats.Skipped,
		})

		dropped, duplicates := result.Dropped, result.Duplicates
		if err := emit(cmd, stats, func(f *cli.Formatter) error {
			return f.IngestStats(stats, dropped, duplicates)
		}); err != nil {
			return err
		}
	}

	common.LogDebug("Import finished", common.Fields{"files": len(args), "batches": len(all)})
	return nil
}

func readWithProgress(ctx context.Context, reader *ingest.Reader, path string) (*ingest.Result, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	size := int64(-1)
	if fi, err := f.Stat(); err == nil {
		size = fi.Size()
	}

	bar := cli.NewByteProgress(os.Stderr, size, filepath.Base(path))
	pr := progressbar.NewReader(f, bar)
	result, err := reader.Read(ctx, &pr)
	_ = bar.Finish()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return result, nil
}

func printDryRun(path string, result *ingest.Result) error {
	//nolint:forbidigo // User-facing output
	fmt.Println(cli.FormatTitle("Dry run: " + filepath.Base(path)))
	for _, m := range result.Header.Matched {
		//nolint:forbidigo // User-facing output
		fmt.Printf("  %s %s → %s\n", cli.SuccessStyle.Render(cli.SuccessIcon), m.Source, m.Canonical)
	}
	for _, u := range result.Header.Unmatched {
		//nolint:forbidigo // User-facing output
		fmt.Printf("  %s %s (ignored)\n", cli.SubtleStyle.Render("·"), u)
	}
	//nolint:forbidigo // User-facing output
	fmt.Printf("%d rows read, %d records, %d dropped, %d duplicates\n",
		result.Rows, len(result.Records), result.Dropped, result.Duplicates)
	return nil
}
