package storage

import (
	"context"
	"fmt"
	"time"
)

// Ingestion statuses.
const (
	IngestStatusSuccess = "success"
	IngestStatusFailed  = "failed"
)

// IngestionLog is one audit row per import attempt.
type IngestionLog struct {
	StartedAt    time.Time `db:"started_at" json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time `db:"finished_at" json:"finished_at" yaml:"finished_at"`
	BatchID      string    `db:"batch_id" json:"batch_id" yaml:"batch_id"`
	Source       string    `db:"source" json:"source" yaml:"source"`
	Status       string    `db:"status" json:"status" yaml:"status"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty" yaml:"error_message,omitempty"`
	ID           int64     `db:"id" json:"id" yaml:"id"`
	RowsTotal    int       `db:"rows_total" json:"rows_total" yaml:"rows_total"`
	Inserted     int       `db:"inserted" json:"inserted" yaml:"inserted"`
	Updated      int       `db:"updated" json:"updated" yaml:"updated"`
	Skipped      int       `db:"skipped" json:"skipped" yaml:"skipped"`
}

func (s *SQLiteStorage) appendLog(ctx context.Context, ex execer, stats *IngestStats, started time.Time, cause error) error {
	status, message := IngestStatusSuccess, ""
	if cause != nil {
		status, message = IngestStatusFailed, cause.Error()
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO ingestion_logs (batch_id, source, started_at, finished_at,
			rows_total, inserted, updated, skipped, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.BatchID, stats.Source, started.UTC(), time.Now().UTC(),
		stats.Total, stats.Inserted, stats.Updated, stats.Skipped, status, message)
	if err != nil {
		return fmt.Errorf("failed to write ingestion log: %w", err)
	}
	return nil
}

// IngestionLogs returns the most recent import attempts, newest first.
func (s *SQLiteStorage) IngestionLogs(ctx context.Context, limit int) ([]IngestionLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	var logs []IngestionLog
	err := s.db.SelectContext(ctx, &logs, `
		SELECT id, batch_id, source, started_at, finished_at, rows_total,
			inserted, updated, skipped, status, error_message
		FROM ingestion_logs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingestion logs: %w", err)
	}
	return logs, nil
}
