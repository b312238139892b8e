package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

const dueDateLayout = "2006-01-02"

type remarkRow struct {
	CreatedAt time.Time `db:"created_at"`
	Site      string    `db:"site"`
	Category  string    `db:"category"`
	Priority  string    `db:"priority"`
	Status    string    `db:"status"`
	Title     string    `db:"title"`
	Details   string    `db:"details"`
	DueDate   string    `db:"due_date"`
	CreatedBy string    `db:"created_by"`
	ID        int64     `db:"id"`
}

func (row *remarkRow) toModel() (model.Remark, error) {
	r := model.Remark{
		ID:        row.ID,
		Site:      row.Site,
		Category:  row.Category,
		Priority:  model.RemarkPriority(row.Priority),
		Status:    model.RemarkStatus(row.Status),
		Title:     row.Title,
		Details:   row.Details,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
	}
	if row.DueDate != "" {
		due, err := time.Parse(dueDateLayout, row.DueDate)
		if err != nil {
			return model.Remark{}, fmt.Errorf("stored due date %q for remark %d: %w", row.DueDate, row.ID, err)
		}
		r.DueDate = &due
	}
	return r, nil
}

// AddRemark stores a new remark and returns it with its ID and creation time set.
func (s *SQLiteStorage) AddRemark(ctx context.Context, r model.Remark) (model.Remark, error) {
	if err := validateContext(ctx); err != nil {
		return model.Remark{}, err
	}
	if err := r.Validate(); err != nil {
		return model.Remark{}, err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC()

	due := ""
	if r.DueDate != nil {
		due = r.DueDate.Format(dueDateLayout)
	}

	err := s.withWriteRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO remarks (site, category, priority, status, title, details, due_date, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Site, r.Category, string(r.Priority), string(r.Status), r.Title, r.Details, due, r.CreatedBy, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to add remark for %s: %w", r.Site, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read remark id: %w", err)
		}
		r.ID = id
		return nil
	})
	if err != nil {
		return model.Remark{}, err
	}
	return r, nil
}

// Remarks lists remarks matching filter, newest first.
func (s *SQLiteStorage) Remarks(ctx context.Context, filter model.RemarkFilter) ([]model.Remark, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	where, args := remarkWhere(filter)
	var rows []remarkRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, site, category, priority, status, title, details, due_date, created_by, created_at
		FROM remarks`+where+`
		ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query remarks: %w", err)
	}

	remarks := make([]model.Remark, 0, len(rows))
	for i := range rows {
		r, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		remarks = append(remarks, r)
	}
	return remarks, nil
}

// RemarkStatusCounts counts remarks matching filter per status. Every status
// is present in the result, zero when unused.
func (s *SQLiteStorage) RemarkStatusCounts(ctx context.Context, filter model.RemarkFilter) (map[model.RemarkStatus]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	where, args := remarkWhere(filter)
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"n"`
	}
	err := s.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS n FROM remarks`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count remarks: %w", err)
	}

	counts := make(map[model.RemarkStatus]int, len(model.RemarkStatuses))
	for _, status := range model.RemarkStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[model.RemarkStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// UpdateRemarkStatus moves a remark to a new status.
func (s *SQLiteStorage) UpdateRemarkStatus(ctx context.Context, id int64, status model.RemarkStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	status, err := model.ParseRemarkStatus(string(status))
	if err != nil {
		return err
	}

	return s.withWriteRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE remarks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, string(status), id)
		if err != nil {
			return fmt.Errorf("failed to update remark %d: %w", id, err)
		}
		return requireAffected(res, id)
	})
}

// DeleteRemark removes a remark.
func (s *SQLiteStorage) DeleteRemark(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withWriteRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM remarks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete remark %d: %w", id, err)
		}
		return requireAffected(res, id)
	})
}

func requireAffected(res interface{ RowsAffected() (int64, error) }, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return common.NewUserError("remark "+strconv.FormatInt(id, 10), common.ErrNotFound)
	}
	return nil
}

func remarkWhere(filter model.RemarkFilter) (string, []any) {
	var clauses []string
	var args []any
	add := func(column, value string) {
		if value != "" {
			clauses = append(clauses, column+" = ?")
			args = append(args, value)
		}
	}
	add("site", filter.Site)
	add("category", filter.Category)
	add("priority", string(filter.Priority))
	add("status", string(filter.Status))
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
