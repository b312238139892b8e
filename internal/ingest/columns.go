// Package ingest reads DSM site-month files into canonical records.
package ingest

import (
	"strings"

	"github.com/Veraticus/dsm-insight/internal/model"
)

// RequiredColumns must be present in every source file.
var RequiredColumns = []string{
	model.ColumnSite,
	model.ColumnMonth,
	model.ColumnMeasuredEnergy,
	model.ColumnActualRevenue,
	model.ColumnTotalPenalty,
	model.ColumnQCA,
}

// columnAliases maps normalized header spellings to canonical column names.
var columnAliases = map[string]string{
	"site":     model.ColumnSite,
	"sitename": model.ColumnSite,
	"location": model.ColumnSite,
	"plant":    model.ColumnSite,

	"connectivity":   model.ColumnConnectivity,
	"connection":     model.ColumnConnectivity,
	"gridconnection": model.ColumnConnectivity,

	"technology": model.ColumnTechnology,
	"tech":       model.ColumnTechnology,
	"type":       model.ColumnTechnology,
	"planttype":  model.ColumnTechnology,

	"month":     model.ColumnMonth,
	"monthyear": model.ColumnMonth,
	"period":    model.ColumnMonth,
	"date":      model.ColumnMonth,

	"measuredenergykwh": model.ColumnMeasuredEnergy,
	"generationkwh":     model.ColumnMeasuredEnergy,
	"energykwh":         model.ColumnMeasuredEnergy,
	"generation":        model.ColumnMeasuredEnergy,
	"energygeneration":  model.ColumnMeasuredEnergy,
	"kwh":               model.ColumnMeasuredEnergy,

	"plantcapacity":     model.ColumnPlantCapacity,
	"capacity":          model.ColumnPlantCapacity,
	"installedcapacity": model.ColumnPlantCapacity,
	"plantcapacitymw":   model.ColumnPlantCapacity,
	"plantaccapacity":   model.ColumnPlantCapacity,

	"pparate":   model.ColumnPPARate,
	"rate":      model.ColumnPPARate,
	"tariff":    model.ColumnPPARate,
	"ppatariff": model.ColumnPPARate,

	"actualrevenueinr": model.ColumnActualRevenue,
	"revenueinr":       model.ColumnActualRevenue,
	"revenue":          model.ColumnActualRevenue,
	"actualrevenue":    model.ColumnActualRevenue,
	"totalrevenue":     model.ColumnActualRevenue,

	"totalpenaltyinr": model.ColumnTotalPenalty,
	"dsmpenaltyinr":   model.ColumnTotalPenalty,
	"penalty":         model.ColumnTotalPenalty,
	"dsmpenalty":      model.ColumnTotalPenalty,
	"penaltyinr":      model.ColumnTotalPenalty,

	"qca":      model.ColumnQCA,
	"buyer":    model.ColumnQCA,
	"customer": model.ColumnQCA,
	"offtaker": model.ColumnQCA,

	"statecode": model.ColumnStateCode,
	"state":     model.ColumnStateName,
	"statename": model.ColumnStateName,

	"powersalecategory": model.ColumnPowerSaleCategory,
	"category":          model.ColumnPowerSaleCategory,
	"salecategory":      model.ColumnPowerSaleCategory,

	"fy":            model.ColumnFiscalYear,
	"fiscalyear":    model.ColumnFiscalYear,
	"financialyear": model.ColumnFiscalYear,
}

var headerReplacer = strings.NewReplacer(" ", "", "(", "", ")", "", "%", "", "_", "", "-", "", ".", "")

// NormalizeHeader lowercases a header and strips separators and punctuation.
func NormalizeHeader(header string) string {
	return headerReplacer.Replace(strings.ToLower(strings.TrimSpace(header)))
}

// CanonicalColumn resolves a raw header to its canonical name.
func CanonicalColumn(header string) (string, bool) {
	canonical, ok := columnAliases[NormalizeHeader(header)]
	return canonical, ok
}

// ColumnMatch records how one source header was resolved.
type ColumnMatch struct {
	Source    string `json:"source" yaml:"source"`
	Canonical string `json:"canonical" yaml:"canonical"`
}

// HeaderReport is the schema preview of a source file.
type HeaderReport struct {
	Matched   []ColumnMatch `json:"matched" yaml:"matched"`
	Unmatched []string      `json:"unmatched" yaml:"unmatched"`
	Missing   []string      `json:"missing" yaml:"missing"`
}

// resolveHeaders maps canonical names to column positions. The first source
// column resolving to a canonical name wins.
func resolveHeaders(headers []string) (map[string]int, HeaderReport) {
	index := make(map[string]int, len(headers))
	report := HeaderReport{Matched: []ColumnMatch{}, Unmatched: []string{}, Missing: []string{}}

	for i, h := range headers {
		h = strings.TrimPrefix(h, "\ufeff")
		canonical, ok := CanonicalColumn(h)
		if !ok {
			report.Unmatched = append(report.Unmatched, h)
			continue
		}
		if _, dup := index[canonical]; dup {
			report.Unmatched = append(report.Unmatched, h)
			continue
		}
		index[canonical] = i
		report.Matched = append(report.Matched, ColumnMatch{Source: h, Canonical: canonical})
	}

	for _, req := range RequiredColumns {
		if _, ok := index[req]; !ok {
			report.Missing = append(report.Missing, req)
		}
	}
	return index, report
}
