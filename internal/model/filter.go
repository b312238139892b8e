package model

import (
	"sort"
	"strings"

	"github.com/Veraticus/dsm-insight/internal/common"
)

// Dimension names a FilterSpec axis.
type Dimension string

// Recognized filter dimensions.
const (
	DimensionFiscalYear   Dimension = "fiscal_year"
	DimensionFrequency    Dimension = "frequency"
	DimensionSite         Dimension = "site"
	DimensionConnectivity Dimension = "connectivity"
	DimensionCategory     Dimension = "category"
	DimensionState        Dimension = "state"
	DimensionTechnology   Dimension = "technology"
	DimensionQCA          Dimension = "qca"
)

// Dimensions lists every recognized dimension in a fixed order.
var Dimensions = []Dimension{
	DimensionFiscalYear,
	DimensionFrequency,
	DimensionSite,
	DimensionConnectivity,
	DimensionCategory,
	DimensionState,
	DimensionTechnology,
	DimensionQCA,
}

// ParseDimension resolves a dimension name.
func ParseDimension(name string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Dimensions {
		if d == known {
			return d, nil
		}
	}
	return "", &common.InvalidDimensionError{Dimension: name}
}

// Value returns the record attribute for the dimension. The second result is
// false for dimensions that do not constrain records.
func (d Dimension) Value(r *Record) (string, bool) {
	switch d {
	case DimensionFiscalYear:
		return r.FiscalYear, true
	case DimensionSite:
		return r.Site, true
	case DimensionConnectivity:
		return r.Connectivity, true
	case DimensionCategory:
		return r.PowerSaleCategory, true
	case DimensionState:
		return r.StateCode, true
	case DimensionTechnology:
		return r.Technology, true
	case DimensionQCA:
		return r.QCA, true
	default:
		return "", false
	}
}

// Frequency selects trend bucketing.
type Frequency string

// Supported frequencies.
const (
	FrequencyMonth   Frequency = "month"
	FrequencyQuarter Frequency = "quarter"
)

// ParseFrequency resolves a frequency value. An empty value means monthly.
func ParseFrequency(value string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(value))) {
	case FrequencyMonth, "":
		return FrequencyMonth, nil
	case FrequencyQuarter:
		return FrequencyQuarter, nil
	default:
		return "", &common.InvalidDimensionError{Dimension: string(DimensionFrequency), Value: value}
	}
}

// FilterSpec maps dimension names to accepted values. An absent or empty set
// means "all".
type FilterSpec map[string][]string

// With returns a copy of the spec with the dimension's accepted values
// replaced by values. The receiver is not modified.
func (f FilterSpec) With(dim Dimension, values ...string) FilterSpec {
	out := make(FilterSpec, len(f)+1)
	for k, v := range f {
		out[k] = append([]string(nil), v...)
	}
	out[string(dim)] = append([]string(nil), values...)
	return out
}

// Validate reports the first unrecognized dimension, in name order so the
// result is deterministic.
func (f FilterSpec) Validate() error {
	for _, name := range f.names() {
		dim, err := ParseDimension(name)
		if err != nil {
			return err
		}
		if dim == DimensionFrequency {
			for _, v := range f[name] {
				if _, err := ParseFrequency(v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// RequestedFrequency returns the trend bucketing named by the spec. The
// second result is false when no frequency value is given. Names are visited
// in sorted order and the first value wins, so differently-cased spellings
// of the dimension resolve the same way on every call.
func (f FilterSpec) RequestedFrequency() (Frequency, bool, error) {
	for _, name := range f.names() {
		dim, err := ParseDimension(name)
		if err != nil || dim != DimensionFrequency || len(f[name]) == 0 {
			continue
		}
		freq, err := ParseFrequency(f[name][0])
		if err != nil {
			return "", true, err
		}
		return freq, true, nil
	}
	return "", false, nil
}

// Frequency returns the requested trend bucketing, defaulting to monthly.
func (f FilterSpec) Frequency() (Frequency, error) {
	freq, ok, err := f.RequestedFrequency()
	if err != nil {
		return "", err
	}
	if !ok {
		return FrequencyMonth, nil
	}
	return freq, nil
}

// IsEmpty reports whether no dimension carries accepted values.
func (f FilterSpec) IsEmpty() bool {
	for _, v := range f {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

func (f FilterSpec) names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
