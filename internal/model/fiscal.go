package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/dsm-insight/internal/common"
)

// monthLayouts are the month tokens accepted from source files, most specific first.
var monthLayouts = []string{
	"2006-01-02",
	"2006-01",
	"Jan-2006",
	"Jan-06",
	"Jan 2006",
	"January 2006",
	"01/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseMonth parses a month token and normalizes it to the first day of the month in UTC.
func ParseMonth(token string) (time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, common.NewSchemaMismatch(ColumnMonth, token, "month is required")
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return StartOfMonth(t), nil
		}
	}
	return time.Time{}, common.NewSchemaMismatch(ColumnMonth, token, "unrecognized month format")
}

// StartOfMonth truncates t to midnight UTC on the first of its month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthKey formats a month as the ordered token YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// FiscalYearOf returns the April-March fiscal year labelled by its ending year.
// Apr 2025 -> FY2026, Jan 2026 -> FY2026.
func FiscalYearOf(t time.Time) string {
	if t.Month() >= time.April {
		return fmt.Sprintf("FY%d", t.Year()+1)
	}
	return fmt.Sprintf("FY%d", t.Year())
}

// FiscalQuarterOf returns Q1 (Apr-Jun) through Q4 (Jan-Mar).
func FiscalQuarterOf(t time.Time) string {
	switch t.Month() {
	case time.April, time.May, time.June:
		return "Q1"
	case time.July, time.August, time.September:
		return "Q2"
	case time.October, time.November, time.December:
		return "Q3"
	default:
		return "Q4"
	}
}

// QuarterStart returns the first month of the fiscal quarter containing t.
func QuarterStart(t time.Time) time.Time {
	m := StartOfMonth(t)
	offset := (int(m.Month()) - int(time.April) + 12) % 3
	return m.AddDate(0, -offset, 0)
}
