package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

// SaveSelection stores a named drill-down selection, replacing one of the same name.
func (s *SQLiteStorage) SaveSelection(ctx context.Context, name string, sel model.Selection) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}

	sites := sel.Sites
	if sites == nil {
		sites = []string{}
	}
	encoded, err := json.Marshal(sites)
	if err != nil {
		return fmt.Errorf("failed to encode sites: %w", err)
	}

	return s.withWriteRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO selections (name, state, sites) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				state = excluded.state,
				sites = excluded.sites,
				updated_at = CURRENT_TIMESTAMP`,
			name, sel.State, string(encoded))
		if err != nil {
			return fmt.Errorf("failed to save selection %s: %w", name, err)
		}
		return nil
	})
}

// LoadSelection returns the named selection or common.ErrNotFound.
func (s *SQLiteStorage) LoadSelection(ctx context.Context, name string) (model.Selection, error) {
	if err := validateContext(ctx); err != nil {
		return model.Selection{}, err
	}
	if err := validateName(name); err != nil {
		return model.Selection{}, err
	}

	var row struct {
		State string `db:"state"`
		Sites string `db:"sites"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT state, sites FROM selections WHERE name = ?`, name)
	if isNoRows(err) {
		return model.Selection{}, common.NewUserError("selection "+name, common.ErrNotFound)
	}
	if err != nil {
		return model.Selection{}, fmt.Errorf("failed to load selection %s: %w", name, err)
	}

	var sel model.Selection
	sel.State = row.State
	if err := json.Unmarshal([]byte(row.Sites), &sel.Sites); err != nil {
		return model.Selection{}, fmt.Errorf("failed to decode sites for %s: %w", name, err)
	}
	return sel, nil
}

// SelectionNames lists saved selections alphabetically.
func (s *SQLiteStorage) SelectionNames(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM selections ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list selections: %w", err)
	}
	return names, nil
}
