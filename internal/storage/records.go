package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Veraticus/dsm-insight/internal/model"
)

const monthLayout = "2006-01-02"

// recordRow is the dsm_records row shape.
type recordRow struct {
	Site              string  `db:"site"`
	Month             string  `db:"month"`
	StateCode         string  `db:"state_code"`
	StateName         string  `db:"state_name"`
	Technology        string  `db:"technology"`
	Connectivity      string  `db:"connectivity"`
	PowerSaleCategory string  `db:"power_sale_category"`
	QCA               string  `db:"qca"`
	FiscalYear        string  `db:"fiscal_year"`
	BatchID           string  `db:"batch_id"`
	MeasuredEnergyKWh float64 `db:"measured_energy_kwh"`
	ActualRevenueINR  float64 `db:"actual_revenue_inr"`
	TotalPenaltyINR   float64 `db:"total_penalty_inr"`
	PlantCapacityMW   float64 `db:"plant_capacity_mw"`
	PPARate           float64 `db:"ppa_rate"`
}

func toRow(r *model.Record, batchID string) recordRow {
	return recordRow{
		Site:              r.Site,
		Month:             model.StartOfMonth(r.Month).Format(monthLayout),
		StateCode:         r.StateCode,
		StateName:         r.StateName,
		Technology:        r.Technology,
		Connectivity:      r.Connectivity,
		PowerSaleCategory: r.PowerSaleCategory,
		QCA:               r.QCA,
		FiscalYear:        r.FiscalYear,
		BatchID:           batchID,
		MeasuredEnergyKWh: r.MeasuredEnergyKWh,
		ActualRevenueINR:  r.ActualRevenueINR,
		TotalPenaltyINR:   r.TotalPenaltyINR,
		PlantCapacityMW:   r.PlantCapacityMW,
		PPARate:           r.PPARate,
	}
}

func (row *recordRow) record() (model.Record, error) {
	month, err := time.Parse(monthLayout, row.Month)
	if err != nil {
		return model.Record{}, fmt.Errorf("stored month %q for site %s: %w", row.Month, row.Site, err)
	}
	return model.Record{
		Site:              row.Site,
		Month:             month,
		StateCode:         row.StateCode,
		StateName:         row.StateName,
		Technology:        row.Technology,
		Connectivity:      row.Connectivity,
		PowerSaleCategory: row.PowerSaleCategory,
		QCA:               row.QCA,
		FiscalYear:        row.FiscalYear,
		MeasuredEnergyKWh: row.MeasuredEnergyKWh,
		ActualRevenueINR:  row.ActualRevenueINR,
		TotalPenaltyINR:   row.TotalPenaltyINR,
		PlantCapacityMW:   row.PlantCapacityMW,
		PPARate:           row.PPARate,
	}, nil
}

const recordColumns = `site, month, state_code, state_name, technology, connectivity,
	power_sale_category, qca, fiscal_year, measured_energy_kwh, actual_revenue_inr,
	total_penalty_inr, plant_capacity_mw, ppa_rate`

// SaveOptions controls how a batch is merged into existing data.
type SaveOptions struct {
	// Source names the batch origin in the ingestion log, usually a file name.
	Source string
	// Overwrite replaces stored rows sharing (site, month); otherwise they are skipped.
	Overwrite bool
}

// IngestStats summarises one SaveRecords call.
type IngestStats struct {
	BatchID  string `json:"batch_id" yaml:"batch_id"`
	Source   string `json:"source" yaml:"source"`
	Inserted int    `json:"inserted" yaml:"inserted"`
	Updated  int    `json:"updated" yaml:"updated"`
	Skipped  int    `json:"skipped" yaml:"skipped"`
	Total    int    `json:"total" yaml:"total"`
}

// SaveRecords upserts records keyed by (site, month) in one transaction and
// appends an ingestion log entry for the batch, whether it succeeds or fails.
func (s *SQLiteStorage) SaveRecords(ctx context.Context, records []model.Record, opts SaveOptions) (*IngestStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateRecords(records); err != nil {
		return nil, err
	}

	started := time.Now()
	var stats *IngestStats
	err := s.withWriteRetry(ctx, func() error {
		stats = &IngestStats{BatchID: uuid.NewString(), Source: opts.Source, Total: len(records)}
		return s.saveRecordsTx(ctx, records, opts, stats, started)
	})
	if err != nil {
		failed := &IngestStats{BatchID: uuid.NewString(), Source: opts.Source, Total: len(records)}
		if logErr := s.appendLog(ctx, s.db, failed, started, err); logErr != nil {
			slog.Warn("failed to record failed ingestion", "error", logErr)
		}
		return nil, fmt.Errorf("failed to save records: %w", err)
	}

	slog.Info("Saved records",
		"batch_id", stats.BatchID,
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"skipped", stats.Skipped)
	return stats, nil
}

func (s *SQLiteStorage) saveRecordsTx(ctx context.Context, records []model.Record, opts SaveOptions, stats *IngestStats, started time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insert := `INSERT INTO dsm_records (` + recordColumns + `, batch_id)
		VALUES (:site, :month, :state_code, :state_name, :technology, :connectivity,
			:power_sale_category, :qca, :fiscal_year, :measured_energy_kwh, :actual_revenue_inr,
			:total_penalty_inr, :plant_capacity_mw, :ppa_rate, :batch_id)`
	update := `UPDATE dsm_records SET
			state_code = :state_code, state_name = :state_name, technology = :technology,
			connectivity = :connectivity, power_sale_category = :power_sale_category, qca = :qca,
			fiscal_year = :fiscal_year, measured_energy_kwh = :measured_energy_kwh,
			actual_revenue_inr = :actual_revenue_inr, total_penalty_inr = :total_penalty_inr,
			plant_capacity_mw = :plant_capacity_mw, ppa_rate = :ppa_rate, batch_id = :batch_id,
			updated_at = CURRENT_TIMESTAMP
		WHERE site = :site AND month = :month`

	for i := range records {
		row := toRow(&records[i], stats.BatchID)

		var exists int
		if err := tx.GetContext(ctx, &exists,
			`SELECT COUNT(*) FROM dsm_records WHERE site = ? AND month = ?`, row.Site, row.Month); err != nil {
			return fmt.Errorf("failed to check existing record: %w", err)
		}

		switch {
		case exists == 0:
			if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
				return fmt.Errorf("failed to insert record %s/%s: %w", row.Site, row.Month, err)
			}
			stats.Inserted++
		case opts.Overwrite:
			if _, err := tx.NamedExecContext(ctx, update, row); err != nil {
				return fmt.Errorf("failed to update record %s/%s: %w", row.Site, row.Month, err)
			}
			stats.Updated++
		default:
			stats.Skipped++
		}
	}

	if err := s.appendLog(ctx, tx, stats, started, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// Records returns every stored record ordered by month then site.
func (s *SQLiteStorage) Records(ctx context.Context) ([]model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var rows []recordRow
	query := `SELECT ` + recordColumns + `, batch_id FROM dsm_records ORDER BY month, site`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]model.Record, 0, len(rows))
	for i := range rows {
		r, err := rows[i].record()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// RecordCount returns the number of stored records.
func (s *SQLiteStorage) RecordCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM dsm_records`); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// DeleteBatch removes the records last written by batchID and reports how many went.
func (s *SQLiteStorage) DeleteBatch(ctx context.Context, batchID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(batchID, "batchID"); err != nil {
		return 0, err
	}

	var affected int64
	err := s.withWriteRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM dsm_records WHERE batch_id = ?`, batchID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete batch %s: %w", batchID, err)
	}
	return int(affected), nil
}

// execer is satisfied by both *sqlx.DB and *sqlx.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ execer = (*sqlx.DB)(nil)
	_ execer = (*sqlx.Tx)(nil)
)

// isNoRows reports whether err means the query matched nothing.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
