package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

// ReadMappingFile reads a site mapping CSV from disk.
func (r *Reader) ReadMappingFile(ctx context.Context, path string) ([]model.SiteMapping, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return r.ReadMapping(ctx, f)
}

// ReadMapping parses a site mapping CSV. Only the site column is required;
// later rows for the same site replace earlier ones.
func (r *Reader) ReadMapping(ctx context.Context, src io.Reader) ([]model.SiteMapping, error) {
	cr := newCSVReader(src)
	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping header: %w", err)
	}

	index, _ := resolveHeaders(headers)
	if _, ok := index[model.ColumnSite]; !ok {
		return nil, common.NewSchemaMismatch(model.ColumnSite, "", "required column is missing")
	}

	var out []model.SiteMapping
	position := make(map[string]int)
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("mapping read error at line %d: %w", line, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		get := func(col string) string {
			if i, ok := index[col]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		m := model.SiteMapping{
			Site:              r.CleanSite(get(model.ColumnSite)),
			StateCode:         get(model.ColumnStateCode),
			StateName:         get(model.ColumnStateName),
			Technology:        get(model.ColumnTechnology),
			Connectivity:      get(model.ColumnConnectivity),
			PowerSaleCategory: get(model.ColumnPowerSaleCategory),
			QCA:               r.CleanQCA(get(model.ColumnQCA)),
		}
		if m.Site == "" {
			continue
		}
		if m.PlantCapacityMW, err = parseNumber(model.ColumnPlantCapacity, get(model.ColumnPlantCapacity)); err != nil {
			return nil, atRow(err, line)
		}
		if m.PPARate, err = parseNumber(model.ColumnPPARate, get(model.ColumnPPARate)); err != nil {
			return nil, atRow(err, line)
		}

		if i, seen := position[m.Site]; seen {
			out[i] = m
			continue
		}
		position[m.Site] = len(out)
		out = append(out, m)
	}
	return out, nil
}

// Enrich fills attributes a record lacks from the mapping of its site. Values
// already present in a record are never overwritten. A record still without a
// state code falls back to its state name. The input is not modified.
func Enrich(records []model.Record, mappings []model.SiteMapping) []model.Record {
	bySite := make(map[string]*model.SiteMapping, len(mappings))
	for i := range mappings {
		bySite[mappings[i].Site] = &mappings[i]
	}

	out := make([]model.Record, len(records))
	copy(out, records)

	for i := range out {
		r := &out[i]
		m, ok := bySite[r.Site]
		if !ok {
			fill(&r.StateCode, r.StateName)
			continue
		}
		fill(&r.StateCode, m.StateCode)
		fill(&r.StateName, m.StateName)
		fill(&r.Technology, m.Technology)
		fill(&r.Connectivity, m.Connectivity)
		fill(&r.PowerSaleCategory, m.PowerSaleCategory)
		fill(&r.QCA, m.QCA)
		if r.PlantCapacityMW == 0 {
			r.PlantCapacityMW = m.PlantCapacityMW
		}
		if r.PPARate == 0 {
			r.PPARate = m.PPARate
		}
		fill(&r.StateCode, r.StateName)
	}
	return out
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
