package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/dsm-insight/internal/common"
)

// ErrUnknownMetric is returned for a metric name outside the rankable set.
var ErrUnknownMetric = errors.New("unknown metric")

// KPISet holds the headline metrics of a record collection, in display units.
type KPISet struct {
	GenerationMU    float64 `json:"generation_mu" yaml:"generation_mu"`
	RevenueCr       float64 `json:"revenue_cr" yaml:"revenue_cr"`
	PenaltyCr       float64 `json:"penalty_cr" yaml:"penalty_cr"`
	LossPct         float64 `json:"loss_pct" yaml:"loss_pct"`
	EfficiencyScore float64 `json:"efficiency_score" yaml:"efficiency_score"`
}

// LossPct derives penalty as a percentage of revenue from converted crore
// values. Non-positive revenue yields zero.
func LossPct(penaltyCr, revenueCr float64) float64 {
	if revenueCr > 0 {
		return penaltyCr / revenueCr * 100
	}
	return 0
}

// RiskLevel classifies a group against the risk threshold.
type RiskLevel string

// Risk levels.
const (
	RiskHigh RiskLevel = "high-risk"
	RiskLow  RiskLevel = "low-risk"
)

// DefaultRiskThreshold is the default loss percentage above which a group is high-risk.
const DefaultRiskThreshold = 5.0

// ClassifyRisk returns high-risk when lossPct strictly exceeds threshold.
func ClassifyRisk(lossPct, threshold float64) RiskLevel {
	if lossPct > threshold {
		return RiskHigh
	}
	return RiskLow
}

// LineStatus colours a time-series point against the line boundary.
type LineStatus string

// Line statuses.
const (
	LineOnTarget LineStatus = "on-target"
	LineBreach   LineStatus = "breach"
)

// DefaultLineBoundary is the default inclusive on-target loss percentage.
const DefaultLineBoundary = 1.0

// ClassifyLine returns on-target when lossPct is at or below boundary.
func ClassifyLine(lossPct, boundary float64) LineStatus {
	if lossPct <= boundary {
		return LineOnTarget
	}
	return LineBreach
}

// Metric names a GroupSummary column used for ranking.
type Metric string

// Rankable metrics.
const (
	MetricGeneration Metric = "generation"
	MetricRevenue    Metric = "revenue"
	MetricPenalty    Metric = "penalty"
	MetricLoss       Metric = "loss_pct"
)

// GroupKey names a summarization axis.
type GroupKey string

// Supported group keys.
const (
	GroupState      GroupKey = "state"
	GroupSite       GroupKey = "site"
	GroupCategory   GroupKey = "category"
	GroupQCA        GroupKey = "qca"
	GroupTechnology GroupKey = "technology"
)

// GroupKeys lists the supported group keys.
var GroupKeys = []GroupKey{GroupState, GroupSite, GroupCategory, GroupQCA, GroupTechnology}

// Dimension maps a group key to the filter dimension over the same attribute.
func (g GroupKey) Dimension() Dimension {
	switch g {
	case GroupState:
		return DimensionState
	case GroupSite:
		return DimensionSite
	case GroupCategory:
		return DimensionCategory
	case GroupQCA:
		return DimensionQCA
	case GroupTechnology:
		return DimensionTechnology
	default:
		return ""
	}
}

// GroupSummary is one row per distinct grouping value.
type GroupSummary struct {
	Key          string    `json:"key" yaml:"key"`
	Label        string    `json:"label,omitempty" yaml:"label,omitempty"`
	StateCode    string    `json:"state_code,omitempty" yaml:"state_code,omitempty"`
	RiskLevel    RiskLevel `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`
	GenerationMU float64   `json:"generation_mu" yaml:"generation_mu"`
	RevenueCr    float64   `json:"revenue_cr" yaml:"revenue_cr"`
	PenaltyCr    float64   `json:"penalty_cr" yaml:"penalty_cr"`
	LossPct      float64   `json:"loss_pct" yaml:"loss_pct"`
	Records      int       `json:"records" yaml:"records"`
	Sites        int       `json:"sites" yaml:"sites"`
	NoData       bool      `json:"no_data,omitempty" yaml:"no_data,omitempty"`
}

// MetricValue returns the summary's value for m. Unknown metrics yield zero.
func (s *GroupSummary) MetricValue(m Metric) float64 {
	switch m {
	case MetricGeneration:
		return s.GenerationMU
	case MetricRevenue:
		return s.RevenueCr
	case MetricPenalty:
		return s.PenaltyCr
	case MetricLoss:
		return s.LossPct
	default:
		return 0
	}
}

// TrendPoint is one time bucket of a trend series.
type TrendPoint struct {
	Period       time.Time  `json:"period" yaml:"period"`
	Label        string     `json:"label" yaml:"label"`
	GenerationMU float64    `json:"generation_mu" yaml:"generation_mu"`
	RevenueCr    float64    `json:"revenue_cr" yaml:"revenue_cr"`
	PenaltyCr    float64    `json:"penalty_cr" yaml:"penalty_cr"`
	LossPct      float64    `json:"loss_pct" yaml:"loss_pct"`
	Line         LineStatus `json:"line" yaml:"line"`
}

// ParseMetric resolves a metric name.
func ParseMetric(name string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(name))); m {
	case MetricGeneration, MetricRevenue, MetricPenalty, MetricLoss:
		return m, nil
	case "loss":
		return MetricLoss, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

// ParseGroupKey resolves a group key. Unknown keys are reported as an
// unrecognized dimension.
func ParseGroupKey(name string) (GroupKey, error) {
	key := GroupKey(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range GroupKeys {
		if key == known {
			return key, nil
		}
	}
	return "", &common.InvalidDimensionError{Dimension: name}
}
