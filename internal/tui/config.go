package tui

import (
	"context"

	"github.com/Veraticus/dsm-insight/internal/model"
	"github.com/Veraticus/dsm-insight/internal/tui/themes"
)

// SaveFunc persists the selection after each transition.
type SaveFunc func(ctx context.Context, sel model.Selection) error

// Config holds TUI configuration.
type Config struct {
	Theme        themes.Theme
	Save         SaveFunc
	Filter       model.FilterSpec
	Selection    model.Selection
	Records      []model.Record
	Threshold    float64
	LineBoundary float64
	Width        int
	Height       int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		Threshold:    model.DefaultRiskThreshold,
		LineBoundary: model.DefaultLineBoundary,
		Width:        100,
		Height:       30,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) { c.Theme = theme }
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithRecords sets the records the shell reports on.
func WithRecords(records []model.Record) Option {
	return func(c *Config) { c.Records = records }
}

// WithFilter scopes every view to spec.
func WithFilter(spec model.FilterSpec) Option {
	return func(c *Config) { c.Filter = spec }
}

// WithThresholds sets the risk threshold and the trend line boundary.
func WithThresholds(risk, line float64) Option {
	return func(c *Config) {
		c.Threshold = risk
		c.LineBoundary = line
	}
}

// WithSelection starts the session from a previously saved selection.
func WithSelection(sel model.Selection) Option {
	return func(c *Config) { c.Selection = sel }
}

// WithSave persists the selection whenever it changes.
func WithSave(fn SaveFunc) Option {
	return func(c *Config) { c.Save = fn }
}
