package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dsm-insight/internal/cli"
	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

const dueLayout = "2006-01-02"

func remarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remarks",
		Short: "Track follow-up notes against sites",
		Long: `Remarks record issues found while reviewing DSM performance, such as an
inverter fault or a suspicious meter read, with a category, priority, status
and optional due date.

Statuses: Open, In Progress, On Hold, Resolved, Closed.
Priorities: High, Medium, Low.`,
	}

	cmd.AddCommand(addRemarkCmd())
	cmd.AddCommand(listRemarksCmd())
	cmd.AddCommand(remarkStatusCmd())
	cmd.AddCommand(removeRemarkCmd())
	cmd.AddCommand(exportRemarksCmd())

	return cmd
}

func addRemarkCmd() *cobra.Command {
	var site, title, details, category, priority, status, due, by string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a remark for a site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sites := cleanSites([]string{site})
			if len(sites) == 0 {
				return fmt.Errorf("%w: site %q", common.ErrInvalidRemark, site)
			}
			r := model.Remark{Site: sites[0], Title: title, Details: details, CreatedBy: by}

			var err error
			if r.Category, err = model.ParseRemarkCategory(category); err != nil {
				return err
			}
			if r.Priority, err = model.ParseRemarkPriority(priority); err != nil {
				return err
			}
			if r.Status, err = model.ParseRemarkStatus(status); err != nil {
				return err
			}
			if due != "" {
				d, err := time.Parse(dueLayout, due)
				if err != nil {
					return fmt.Errorf("%w: due date %q must be YYYY-MM-DD", common.ErrInvalidRemark, due)
				}
				r.DueDate = &d
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			saved, err := store.AddRemark(ctx, r)
			if err != nil {
				return err
			}
			common.LogInfo("Added remark", common.Fields{"id": saved.ID, "site": saved.Site, "priority": saved.Priority})
			return emit(cmd, saved, func(*cli.Formatter) error {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved remark %d for %s", saved.ID, saved.Site))) //nolint:forbidigo // User-facing output
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "site the remark is about")
	cmd.Flags().StringVar(&title, "title", "", "brief description")
	cmd.Flags().StringVar(&details, "details", "", "detailed notes")
	cmd.Flags().StringVar(&category, "category", "Other", "remark category")
	cmd.Flags().StringVar(&priority, "priority", string(model.PriorityMedium), "High, Medium or Low")
	cmd.Flags().StringVar(&status, "status", string(model.RemarkOpen), "initial status")
	cmd.Flags().StringVar(&due, "due", "", "due date as YYYY-MM-DD")
	cmd.Flags().StringVar(&by, "by", os.Getenv("USER"), "author of the remark")
	_ = cmd.MarkFlagRequired("site")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// addRemarkFilterFlags registers the listing filters shared by list and export.
func addRemarkFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("site", "", "only remarks for this site")
	cmd.Flags().String("status", "", "only remarks with this status")
	cmd.Flags().String("priority", "", "only remarks with this priority")
	cmd.Flags().String("category", "", "only remarks in this category")
}

func remarkFilterFromFlags(cmd *cobra.Command) (model.RemarkFilter, error) {
	var filter model.RemarkFilter
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}

	if v := get("site"); v != "" {
		if sites := cleanSites([]string{v}); len(sites) > 0 {
			filter.Site = sites[0]
		}
	}
	var err error
	if v := get("status"); v != "" {
		if filter.Status, err = model.ParseRemarkStatus(v); err != nil {
			return filter, err
		}
	}
	if v := get("priority"); v != "" {
		if filter.Priority, err = model.ParseRemarkPriority(v); err != nil {
			return filter, err
		}
	}
	if v := get("category"); v != "" {
		if filter.Category, err = model.ParseRemarkCategory(v); err != nil {
			return filter, err
		}
	}
	return filter, nil
}

type remarkListing struct {
	Counts  map[model.RemarkStatus]int `json:"status_counts" yaml:"status_counts"`
	Remarks []model.Remark             `json:"remarks" yaml:"remarks"`
}

func listRemarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remarks with per-status counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := remarkFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			remarks, err := store.Remarks(ctx, filter)
			if err != nil {
				return err
			}
			counts, err := store.RemarkStatusCounts(ctx, filter)
			if err != nil {
				return err
			}

			listing := remarkListing{Counts: counts, Remarks: remarks}
			return emit(cmd, listing, func(f *cli.Formatter) error {
				return f.Remarks(remarks, counts, time.Now())
			})
		},
	}
	addRemarkFilterFlags(cmd)
	return cmd
}

func parseRemarkID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", common.ErrInvalidRemark, raw)
	}
	return id, nil
}

func remarkStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a remark to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRemarkID(args[0])
			if err != nil {
				return err
			}
			status, err := model.ParseRemarkStatus(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.UpdateRemarkStatus(ctx, id, status); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Remark %d is now %s", id, status))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func removeRemarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a remark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRemarkID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRemark(ctx, id); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted remark %d", id))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func exportRemarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file.csv]",
		Short: "Export remarks as CSV",
		Long: `Export writes the matching remarks as CSV. Without a file argument it writes
dsm_remarks_YYYYMMDD.csv in the current directory; "-" writes to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := remarkFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			remarks, err := store.Remarks(ctx, filter)
			if err != nil {
				return err
			}

			path := "dsm_remarks_" + time.Now().Format("20060102") + ".csv"
			if len(args) == 1 {
				path = args[0]
			}
			if path == "-" {
				return cli.WriteRemarksCSV(cmd.OutOrStdout(), remarks)
			}
			return writeRemarksFile(path, remarks)
		},
	}
	addRemarkFilterFlags(cmd)
	return cmd
}

func writeRemarksFile(path string, remarks []model.Remark) error {
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := cli.WriteRemarksCSV(f, remarks); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d remarks to %s", len(remarks), path))) //nolint:forbidigo // User-facing output
	return nil
}
