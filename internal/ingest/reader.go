package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

// DefaultSiteAliases folds known spelling variants of site names. Keys are lowercase.
var DefaultSiteAliases = map[string]string{
	"washi1":       "WASHI",
	"washi2":       "WASHI",
	"washi 1":      "WASHI",
	"washi 2":      "WASHI",
	"tx 12":        "TX_12",
	"tx12":         "TX_12",
	"tx-12":        "TX_12",
	"bheemshakti":  "BHEEMSHAKTI",
	"bheem shakti": "BHEEMSHAKTI",
}

// DefaultQCAAliases folds known spelling variants of QCA names. Keys are lowercase.
var DefaultQCAAliases = map[string]string{
	"cliamte connect": "Climate Connect",
	"climate connect": "Climate Connect",
	"climateconnect":  "Climate Connect",
	"reconnect":       "Reconnect",
	"re connect":      "Reconnect",
	"re-connect":      "Reconnect",
	"manikaran":       "Manikaran",
	"unilink":         "Unilink",
	"uni link":        "Unilink",
	"uni-link":        "Unilink",
}

// Options tunes value cleaning.
type Options struct {
	SiteAliases map[string]string
	QCAAliases  map[string]string
}

// DefaultOptions returns the built-in alias tables.
func DefaultOptions() Options {
	return Options{SiteAliases: DefaultSiteAliases, QCAAliases: DefaultQCAAliases}
}

// Result is the outcome of reading one source.
type Result struct {
	Records    []model.Record `json:"records" yaml:"records"`
	Header     HeaderReport   `json:"header" yaml:"header"`
	Rows       int            `json:"rows" yaml:"rows"`
	Dropped    int            `json:"dropped" yaml:"dropped"`
	Duplicates int            `json:"duplicates" yaml:"duplicates"`
}

// Reader converts CSV sources into canonical records.
type Reader struct {
	opts  Options
	title cases.Caser
}

// NewReader creates a reader with the given cleaning options.
func NewReader(opts Options) *Reader {
	return &Reader{opts: opts, title: cases.Title(language.English)}
}

// ReadFile reads a CSV file from disk.
func (r *Reader) ReadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return r.Read(ctx, f)
}

// Read parses src. A missing required column or a malformed value fails the
// whole read with a SchemaMismatch; rows without a site or month are dropped
// and counted. Repeated (site, month) rows keep the last occurrence.
func (r *Reader) Read(ctx context.Context, src io.Reader) (*Result, error) {
	cr := newCSVReader(src)

	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, common.NewSchemaMismatch(model.ColumnSite, "", "file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index, report := resolveHeaders(headers)
	if len(report.Missing) > 0 {
		return nil, common.NewSchemaMismatch(report.Missing[0], "", "required column is missing")
	}

	result := &Result{Header: report}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv read error at line %d: %w", line, err)
		}
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if blank(row) {
			continue
		}

		result.Rows++
		rec, ok, err := r.parseRow(row, index, line)
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Dropped++
			continue
		}
		result.Records = append(result.Records, rec)
	}

	result.Records, result.Duplicates = dedupe(result.Records)
	return result, nil
}

// Preview resolves the header row of src without reading any data rows.
func (r *Reader) Preview(src io.Reader) (HeaderReport, error) {
	headers, err := newCSVReader(src).Read()
	if err != nil {
		return HeaderReport{}, fmt.Errorf("failed to read csv header: %w", err)
	}
	_, report := resolveHeaders(headers)
	return report, nil
}

func newCSVReader(src io.Reader) *csv.Reader {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

func (r *Reader) parseRow(row []string, index map[string]int, line int) (model.Record, bool, error) {
	get := func(col string) string {
		if i, ok := index[col]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	site := r.CleanSite(get(model.ColumnSite))
	rawMonth := get(model.ColumnMonth)
	if site == "" || rawMonth == "" {
		return model.Record{}, false, nil
	}

	month, err := model.ParseMonth(rawMonth)
	if err != nil {
		return model.Record{}, false, atRow(err, line)
	}

	rec := model.Record{
		Site:              site,
		Month:             month,
		StateCode:         get(model.ColumnStateCode),
		StateName:         get(model.ColumnStateName),
		Technology:        get(model.ColumnTechnology),
		Connectivity:      get(model.ColumnConnectivity),
		PowerSaleCategory: get(model.ColumnPowerSaleCategory),
		QCA:               r.CleanQCA(get(model.ColumnQCA)),
		FiscalYear:        get(model.ColumnFiscalYear),
	}
	if rec.FiscalYear == "" {
		rec.FiscalYear = model.FiscalYearOf(month)
	}

	numbers := []struct {
		dst *float64
		col string
	}{
		{&rec.MeasuredEnergyKWh, model.ColumnMeasuredEnergy},
		{&rec.ActualRevenueINR, model.ColumnActualRevenue},
		{&rec.TotalPenaltyINR, model.ColumnTotalPenalty},
		{&rec.PlantCapacityMW, model.ColumnPlantCapacity},
		{&rec.PPARate, model.ColumnPPARate},
	}
	for _, n := range numbers {
		v, err := parseNumber(n.col, get(n.col))
		if err != nil {
			return model.Record{}, false, atRow(err, line)
		}
		*n.dst = v
	}

	if err := rec.Validate(); err != nil {
		return model.Record{}, false, atRow(err, line)
	}
	return rec, true, nil
}

// CleanSite trims, folds aliases and upper-cases a site name.
func (r *Reader) CleanSite(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" || lower == "nan" {
		return ""
	}
	if alias, ok := r.opts.SiteAliases[lower]; ok {
		return alias
	}
	return strings.ToUpper(lower)
}

// CleanQCA folds aliases and title-cases unknown QCA names.
func (r *Reader) CleanQCA(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	if lower == "" || lower == "nan" {
		return ""
	}
	if alias, ok := r.opts.QCAAliases[lower]; ok {
		return alias
	}
	return r.title.String(trimmed)
}

// parseNumber accepts grouped digits ("1,25,000"). A blank cell is zero.
func parseNumber(col, raw string) (float64, error) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	if cleaned == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, common.NewSchemaMismatch(col, raw, "not a number")
	}
	return v, nil
}

func atRow(err error, line int) error {
	var sm *common.SchemaMismatchError
	if errors.As(err, &sm) {
		sm.Row = line
	}
	return err
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// dedupe keeps the last record for each (site, month), at that record's position.
func dedupe(records []model.Record) ([]model.Record, int) {
	last := make(map[string]int, len(records))
	for i := range records {
		last[records[i].Key()] = i
	}
	if len(last) == len(records) {
		return records, 0
	}

	out := make([]model.Record, 0, len(last))
	for i := range records {
		if last[records[i].Key()] == i {
			out = append(out, records[i])
		}
	}
	return out, len(records) - len(out)
}
