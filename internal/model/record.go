package model

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Veraticus/dsm-insight/internal/common"
)

// Unit conversion factors. Records always carry raw kWh and INR.
const (
	KWhPerMU    = 1_000_000.0
	INRPerCrore = 10_000_000.0
	INRPerLakh  = 100_000.0
)

// Canonical column names of the ingestion schema.
const (
	ColumnSite              = "Site"
	ColumnMonth             = "Month"
	ColumnMeasuredEnergy    = "Measured_Energy_kWh"
	ColumnActualRevenue     = "Actual_Revenue_INR"
	ColumnTotalPenalty      = "Total_Penalty_INR"
	ColumnQCA               = "QCA"
	ColumnStateCode         = "State_Code"
	ColumnStateName         = "State"
	ColumnTechnology        = "Technology"
	ColumnConnectivity      = "Connectivity"
	ColumnPowerSaleCategory = "Power_Sale_Category"
	ColumnFiscalYear        = "FY"
	ColumnPlantCapacity     = "Plant_Capacity"
	ColumnPPARate           = "PPA_Rate"
)

// Record is one site-month observation.
type Record struct {
	Month             time.Time `json:"month" yaml:"month"`
	Site              string    `json:"site" yaml:"site"`
	StateCode         string    `json:"state_code" yaml:"state_code"`
	StateName         string    `json:"state_name,omitempty" yaml:"state_name,omitempty"`
	Technology        string    `json:"technology" yaml:"technology"`
	Connectivity      string    `json:"connectivity" yaml:"connectivity"`
	PowerSaleCategory string    `json:"power_sale_category" yaml:"power_sale_category"`
	QCA               string    `json:"qca" yaml:"qca"`
	FiscalYear        string    `json:"fiscal_year" yaml:"fiscal_year"`
	MeasuredEnergyKWh float64   `json:"measured_energy_kwh" yaml:"measured_energy_kwh"`
	ActualRevenueINR  float64   `json:"actual_revenue_inr" yaml:"actual_revenue_inr"`
	TotalPenaltyINR   float64   `json:"total_penalty_inr" yaml:"total_penalty_inr"`
	PlantCapacityMW   float64   `json:"plant_capacity_mw,omitempty" yaml:"plant_capacity_mw,omitempty"`
	PPARate           float64   `json:"ppa_rate,omitempty" yaml:"ppa_rate,omitempty"`
}

// Validate checks the record against the canonical schema. Energy and penalty
// must be finite and non-negative; revenue may carry any sign but must be finite.
func (r *Record) Validate() error {
	if r.Site == "" {
		return common.NewSchemaMismatch(ColumnSite, "", "site is required")
	}
	if r.Month.IsZero() {
		return common.NewSchemaMismatch(ColumnMonth, "", "month is required")
	}
	if err := checkNonNegative(ColumnMeasuredEnergy, r.MeasuredEnergyKWh); err != nil {
		return err
	}
	if err := checkFinite(ColumnActualRevenue, r.ActualRevenueINR); err != nil {
		return err
	}
	return checkNonNegative(ColumnTotalPenalty, r.TotalPenaltyINR)
}

// MonthKey returns the ordered YYYY-MM token for the record's month.
func (r *Record) MonthKey() string {
	return MonthKey(r.Month)
}

// Key identifies the record for de-duplication.
func (r *Record) Key() string {
	return r.Site + "|" + r.MonthKey()
}

// ValidateRecords validates every record, reporting the first failure with its position.
func ValidateRecords(records []Record) error {
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return common.NewSchemaMismatch(field, formatFloat(v), "must be a finite number")
	}
	return nil
}

func checkNonNegative(field string, v float64) error {
	if err := checkFinite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return common.NewSchemaMismatch(field, formatFloat(v), "must be non-negative")
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
