package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/dsm-insight/internal/model"
)

const remarkDateLayout = "2006-01-02"

// RemarkCSVHeader is the column order of a remarks export.
var RemarkCSVHeader = []string{"id", "site", "category", "priority", "title", "details", "status", "due_date", "created_at", "created_by"}

func dueDate(r *model.Remark) string {
	if r.DueDate == nil {
		return ""
	}
	return r.DueDate.Format(remarkDateLayout)
}

// PriorityStyle colours a remark priority.
func PriorityStyle(p model.RemarkPriority) lipgloss.Style {
	switch p {
	case model.PriorityHigh:
		return ErrorStyle
	case model.PriorityMedium:
		return WarningStyle
	default:
		return SuccessStyle
	}
}

// RemarkCounts renders one card per status.
func RemarkCounts(counts map[model.RemarkStatus]int) string {
	cards := make([]string, 0, len(model.RemarkStatuses))
	for _, s := range model.RemarkStatuses {
		cards = append(cards, card(string(s), strconv.Itoa(counts[s])))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// Remarks renders the status counts and the remark list. Overdue due dates
// are highlighted relative to now.
func (f *Formatter) Remarks(remarks []model.Remark, counts map[model.RemarkStatus]int, now time.Time) error {
	if len(remarks) == 0 {
		return f.print(FormatInfo("No remarks match"))
	}
	t := newTable("ID", "SITE", "PRIORITY", "STATUS", "CATEGORY", "TITLE", "DUE", "CREATED")
	for i := range remarks {
		r := &remarks[i]
		due := dueDate(r)
		if r.IsOverdue(now) {
			due = ErrorStyle.Render(due + " " + WarningIcon)
		}
		t.Row(strconv.FormatInt(r.ID, 10), r.Site, PriorityStyle(r.Priority).Render(string(r.Priority)),
			string(r.Status), r.Category, r.Title, due, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return f.print(FormatTitle("Remarks"), RemarkCounts(counts), t.String())
}

// WriteRemarksCSV writes remarks as CSV with a header row.
func WriteRemarksCSV(w io.Writer, remarks []model.Remark) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RemarkCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range remarks {
		r := &remarks[i]
		row := []string{
			strconv.FormatInt(r.ID, 10), r.Site, r.Category, string(r.Priority), r.Title, r.Details,
			string(r.Status), dueDate(r), r.CreatedAt.UTC().Format(time.RFC3339), r.CreatedBy,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write remark %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
