// Package storage provides the data persistence layer for DSM records.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/dsm-insight/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrEmptySlice   = errors.New("slice cannot be empty")
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidLimit = errors.New("limit must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecords rejects an empty batch and any record breaking the canonical schema.
func validateRecords(records []model.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: records", ErrEmptySlice)
	}
	return model.ValidateRecords(records)
}

// validateMappings requires every mapping to name its site.
func validateMappings(mappings []model.SiteMapping) error {
	if len(mappings) == 0 {
		return fmt.Errorf("%w: mappings", ErrEmptySlice)
	}
	for i, m := range mappings {
		if err := validateString(m.Site, "site"); err != nil {
			return fmt.Errorf("mapping at index %d: %w", i, err)
		}
	}
	return nil
}

// validateName ensures a saved-object name is usable as a key and a file name.
func validateName(name string) error {
	if err := validateString(name, "name"); err != nil {
		return err
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q cannot contain path separators", ErrInvalidName, name)
	}
	return nil
}
