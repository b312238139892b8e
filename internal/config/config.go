package config

import (
	"fmt"
	"math"

	"github.com/spf13/viper"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

// EnvPrefix namespaces environment overrides, e.g. DSM_DATABASE_PATH.
const EnvPrefix = "DSM"

// Keys read by Load.
const (
	KeyDatabasePath    = "database.path"
	KeyLogLevel        = "logging.level"
	KeyLogFormat       = "logging.format"
	KeyRiskThreshold   = "report.risk_threshold"
	KeyLineBoundary    = "report.line_boundary"
	KeyParetoLimit     = "report.pareto_limit"
	KeyFrequency       = "report.frequency"
	KeyQCAMaster       = "portfolio.qca_master"
	KeyIngestOverwrite = "ingest.overwrite"
	KeyIngestCheckpt   = "ingest.checkpoint"
	KeyMappingFile     = "ingest.mapping_file"
	KeyServeAddr       = "serve.addr"
)

// DefaultQCAMaster is the set of scheduling agencies always shown in the QCA summary.
var DefaultQCAMaster = []string{"Climate Connect", "Reconnect", "Manikaran", "Unilink"}

// Config is the resolved application configuration.
type Config struct {
	Database  DatabaseConfig
	Logging   LoggingConfig
	Report    ReportConfig
	Portfolio PortfolioConfig
	Ingest    IngestConfig
	Serve     ServeConfig
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// ReportConfig holds the aggregation knobs. RiskThreshold and LineBoundary
// are separate settings and are never substituted for each other.
type ReportConfig struct {
	Frequency     model.Frequency
	RiskThreshold float64
	LineBoundary  float64
	ParetoLimit   int
}

// PortfolioConfig lists the master keys used to complete summaries.
type PortfolioConfig struct {
	QCAMaster []string
}

// IngestConfig controls import behaviour.
type IngestConfig struct {
	MappingFile string
	Overwrite   bool
	Checkpoint  bool
}

// ServeConfig configures the HTTP surface.
type ServeConfig struct {
	Addr string
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, "$HOME/.local/share/dsm/dsm.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyRiskThreshold, model.DefaultRiskThreshold)
	v.SetDefault(KeyLineBoundary, model.DefaultLineBoundary)
	v.SetDefault(KeyParetoLimit, 10)
	v.SetDefault(KeyFrequency, string(model.FrequencyMonth))
	v.SetDefault(KeyQCAMaster, DefaultQCAMaster)
	v.SetDefault(KeyIngestOverwrite, true)
	v.SetDefault(KeyIngestCheckpt, false)
	v.SetDefault(KeyMappingFile, "")
	v.SetDefault(KeyServeAddr, ":8080")
}

// Load resolves a Config from v, applying defaults for unset keys.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	freq, err := model.ParseFrequency(v.GetString(KeyFrequency))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, KeyFrequency, err)
	}

	cfg := &Config{
		Database: DatabaseConfig{Path: ExpandPath(v.GetString(KeyDatabasePath))},
		Logging: LoggingConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		Report: ReportConfig{
			RiskThreshold: v.GetFloat64(KeyRiskThreshold),
			LineBoundary:  v.GetFloat64(KeyLineBoundary),
			ParetoLimit:   v.GetInt(KeyParetoLimit),
			Frequency:     freq,
		},
		Portfolio: PortfolioConfig{QCAMaster: v.GetStringSlice(KeyQCAMaster)},
		Ingest: IngestConfig{
			Overwrite:   v.GetBool(KeyIngestOverwrite),
			Checkpoint:  v.GetBool(KeyIngestCheckpt),
			MappingFile: ExpandPath(v.GetString(KeyMappingFile)),
		},
		Serve: ServeConfig{Addr: v.GetString(KeyServeAddr)},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that viper cannot express.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: %s is empty", common.ErrInvalidConfig, KeyDatabasePath)
	}
	if err := checkPercent(KeyRiskThreshold, c.Report.RiskThreshold); err != nil {
		return err
	}
	if err := checkPercent(KeyLineBoundary, c.Report.LineBoundary); err != nil {
		return err
	}
	if c.Report.ParetoLimit <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", common.ErrInvalidConfig, KeyParetoLimit, c.Report.ParetoLimit)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: %s must be console or json, got %q", common.ErrInvalidConfig, KeyLogFormat, c.Logging.Format)
	}
	return nil
}

func checkPercent(key string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a finite non-negative percentage, got %v", common.ErrInvalidConfig, key, v)
	}
	return nil
}
