package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/dsm-insight/internal/ingest"
	"github.com/Veraticus/dsm-insight/internal/model"
)

// SaveSiteMappings upserts site reference data, replacing any stored row for the same site.
func (s *SQLiteStorage) SaveSiteMappings(ctx context.Context, mappings []model.SiteMapping) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMappings(mappings); err != nil {
		return err
	}

	err := s.withWriteRetry(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		for i := range mappings {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO site_mappings (site, state_code, state_name, technology, connectivity,
					power_sale_category, qca, plant_capacity_mw, ppa_rate)
				VALUES (:site, :state_code, :state_name, :technology, :connectivity,
					:power_sale_category, :qca, :plant_capacity_mw, :ppa_rate)
				ON CONFLICT(site) DO UPDATE SET
					state_code = excluded.state_code,
					state_name = excluded.state_name,
					technology = excluded.technology,
					connectivity = excluded.connectivity,
					power_sale_category = excluded.power_sale_category,
					qca = excluded.qca,
					plant_capacity_mw = excluded.plant_capacity_mw,
					ppa_rate = excluded.ppa_rate,
					updated_at = CURRENT_TIMESTAMP`, mappings[i])
			if err != nil {
				return fmt.Errorf("failed to save mapping for %s: %w", mappings[i].Site, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}

	slog.Info("Saved site mappings", "count", len(mappings))
	return nil
}

// SiteMappings returns every stored mapping ordered by site.
func (s *SQLiteStorage) SiteMappings(ctx context.Context) ([]model.SiteMapping, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var mappings []model.SiteMapping
	err := s.db.SelectContext(ctx, &mappings, `
		SELECT site, state_code, state_name, technology, connectivity,
			power_sale_category, qca, plant_capacity_mw, ppa_rate
		FROM site_mappings
		ORDER BY site`)
	if err != nil {
		return nil, fmt.Errorf("failed to query site mappings: %w", err)
	}
	return mappings, nil
}

// EnrichedRecords returns stored records with missing attributes filled from site mappings.
func (s *SQLiteStorage) EnrichedRecords(ctx context.Context) ([]model.Record, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	mappings, err := s.SiteMappings(ctx)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return records, nil
	}
	return ingest.Enrich(records, mappings), nil
}
