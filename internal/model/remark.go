package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/dsm-insight/internal/common"
)

// RemarkStatus tracks a remark through its follow-up lifecycle.
type RemarkStatus string

// Remark statuses in workflow order.
const (
	RemarkOpen       RemarkStatus = "Open"
	RemarkInProgress RemarkStatus = "In Progress"
	RemarkOnHold     RemarkStatus = "On Hold"
	RemarkResolved   RemarkStatus = "Resolved"
	RemarkClosed     RemarkStatus = "Closed"
)

// RemarkStatuses lists every status in workflow order.
var RemarkStatuses = []RemarkStatus{RemarkOpen, RemarkInProgress, RemarkOnHold, RemarkResolved, RemarkClosed}

// RemarkPriority ranks how urgently a remark needs attention.
type RemarkPriority string

// Remark priorities, most urgent first.
const (
	PriorityHigh   RemarkPriority = "High"
	PriorityMedium RemarkPriority = "Medium"
	PriorityLow    RemarkPriority = "Low"
)

// RemarkPriorities lists every priority, most urgent first.
var RemarkPriorities = []RemarkPriority{PriorityHigh, PriorityMedium, PriorityLow}

// RemarkCategories are the accepted remark categories.
var RemarkCategories = []string{
	"Performance Issue",
	"Maintenance Required",
	"Data Anomaly",
	"Follow-up Needed",
	"Resolved",
	"Other",
}

// Remark is an operator note attached to a site.
type Remark struct {
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	DueDate   *time.Time     `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Site      string         `json:"site" yaml:"site"`
	Category  string         `json:"category" yaml:"category"`
	Priority  RemarkPriority `json:"priority" yaml:"priority"`
	Status    RemarkStatus   `json:"status" yaml:"status"`
	Title     string         `json:"title" yaml:"title"`
	Details   string         `json:"details,omitempty" yaml:"details,omitempty"`
	CreatedBy string         `json:"created_by" yaml:"created_by"`
	ID        int64          `json:"id" yaml:"id"`
}

// RemarkFilter narrows a remark listing. Empty fields match everything.
type RemarkFilter struct {
	Site     string
	Category string
	Priority RemarkPriority
	Status   RemarkStatus
}

// ParseRemarkStatus resolves a status name case-insensitively. Hyphens and
// underscores stand in for spaces, so "in-progress" is In Progress.
func ParseRemarkStatus(value string) (RemarkStatus, error) {
	want := normalizeLabel(value)
	for _, s := range RemarkStatuses {
		if normalizeLabel(string(s)) == want {
			return s, nil
		}
	}
	return "", invalidRemark("status", value)
}

// ParseRemarkPriority resolves a priority name case-insensitively.
func ParseRemarkPriority(value string) (RemarkPriority, error) {
	want := normalizeLabel(value)
	for _, p := range RemarkPriorities {
		if normalizeLabel(string(p)) == want {
			return p, nil
		}
	}
	return "", invalidRemark("priority", value)
}

// ParseRemarkCategory resolves a category name case-insensitively.
func ParseRemarkCategory(value string) (string, error) {
	want := normalizeLabel(value)
	for _, c := range RemarkCategories {
		if normalizeLabel(c) == want {
			return c, nil
		}
	}
	return "", invalidRemark("category", value)
}

// Validate checks that a remark is ready to store.
func (r *Remark) Validate() error {
	if strings.TrimSpace(r.Site) == "" {
		return invalidRemark("site", r.Site)
	}
	if strings.TrimSpace(r.Title) == "" {
		return invalidRemark("title", r.Title)
	}
	if _, err := ParseRemarkStatus(string(r.Status)); err != nil {
		return err
	}
	if _, err := ParseRemarkPriority(string(r.Priority)); err != nil {
		return err
	}
	_, err := ParseRemarkCategory(r.Category)
	return err
}

// IsOverdue reports whether the remark is still active past its due date.
func (r *Remark) IsOverdue(now time.Time) bool {
	if r.DueDate == nil || r.Status == RemarkResolved || r.Status == RemarkClosed {
		return false
	}
	return now.After(r.DueDate.AddDate(0, 0, 1))
}

func normalizeLabel(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.NewReplacer("-", " ", "_", " ").Replace(value)
}

func invalidRemark(field, value string) error {
	return fmt.Errorf("%w: %s %q", common.ErrInvalidRemark, field, value)
}
