package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
	"github.com/Veraticus/dsm-insight/internal/report"
)

// Reserved query parameters. Every other parameter is a filter dimension.
const (
	paramThreshold = "threshold"
	paramCompare   = "compare"
)

type query struct {
	spec      model.FilterSpec
	compare   []string
	threshold float64
}

var errBadThreshold = errors.New("threshold must be a finite non-negative number")

func (h *Handler) parseQuery(c *gin.Context) (query, error) {
	q := query{spec: model.FilterSpec{}, threshold: h.settings.RiskThreshold}
	for name, values := range c.Request.URL.Query() {
		switch name {
		case paramThreshold:
			v, err := strconv.ParseFloat(values[0], 64)
			if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
				return query{}, fmt.Errorf("%w: %q", errBadThreshold, values[0])
			}
			q.threshold = v
		case paramCompare:
			for _, v := range values {
				if site := h.sites.CleanSite(v); site != "" {
					q.compare = append(q.compare, site)
				}
			}
		default:
			q.spec[name] = values
		}
	}
	return q, q.spec.Validate()
}

func (h *Handler) records(c *gin.Context) ([]model.Record, bool) {
	records, err := h.src.EnrichedRecords(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return records, true
}

// prepare parses the query and loads the record set shared by every endpoint.
func (h *Handler) prepare(c *gin.Context) (query, []model.Record, bool) {
	q, err := h.parseQuery(c)
	if err != nil {
		writeError(c, err)
		return query{}, nil, false
	}
	records, ok := h.records(c)
	return q, records, ok
}

// KPIs returns the headline KPI set for the filtered records.
func (h *Handler) KPIs(c *gin.Context) {
	q, records, ok := h.prepare(c)
	if !ok {
		return
	}
	filtered, err := report.Apply(records, q.spec)
	if err != nil {
		writeError(c, err)
		return
	}
	kpis, err := report.Compute(filtered)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// Portfolio returns totals, the penalty pareto and the QCA summary completed
// with master agencies that have no data.
func (h *Handler) Portfolio(c *gin.Context) {
	q, records, ok := h.prepare(c)
	if !ok {
		return
	}
	filtered, err := report.Apply(records, q.spec)
	if err != nil {
		writeError(c, err)
		return
	}
	totals, err := report.Totals(filtered)
	if err != nil {
		writeError(c, err)
		return
	}
	bySite, err := report.Summarize(filtered, model.GroupSite, q.threshold)
	if err != nil {
		writeError(c, err)
		return
	}
	byQCA, err := report.Summarize(filtered, model.GroupQCA, q.threshold)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totals": totals,
		"pareto": report.TopN(bySite, model.MetricPenalty, h.settings.ParetoLimit),
		"qca":    report.Complete(byQCA, h.settings.QCAMaster, q.threshold),
	})
}

// Summary groups the filtered records by the :key path segment.
func (h *Handler) Summary(c *gin.Context) {
	key, err := model.ParseGroupKey(c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	q, records, ok := h.prepare(c)
	if !ok {
		return
	}
	filtered, err := report.Apply(records, q.spec)
	if err != nil {
		writeError(c, err)
		return
	}
	rows, err := report.Summarize(filtered, key, q.threshold)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "threshold": q.threshold, "groups": rows})
}

// Trend buckets the filtered records by the frequency dimension or the configured default.
func (h *Handler) Trend(c *gin.Context) {
	q, records, ok := h.prepare(c)
	if !ok {
		return
	}
	freq := h.settings.Frequency
	f, set, err := q.spec.RequestedFrequency()
	if err != nil {
		writeError(c, err)
		return
	}
	if set {
		freq = f
	}
	filtered, err := report.Apply(records, q.spec)
	if err != nil {
		writeError(c, err)
		return
	}
	points, err := report.Trend(filtered, freq, h.settings.LineBoundary)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"frequency": freq, "points": points})
}

// DrillDownState returns the state drill-down for :code.
func (h *Handler) DrillDownState(c *gin.Context) {
	q, records, ok := h.prepare(c)
	if !ok {
		return
	}
	dd, err := report.DrillDownByState(records, q.spec, c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dd)
}

// DrillDownSites compares the sites named by repeated compare parameters, in order.
func (h *Handler) DrillDownSites(c *gin.Context) {
	q, records, ok := h.prepare(c)
	if !ok {
		return
	}
	cmp, err := report.DrillDownByComparisonSites(records, q.spec, q.compare)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

// SiteProfile returns one site's attributes and KPIs over the filtered records.
func (h *Handler) SiteProfile(c *gin.Context) {
	q, records, ok := h.prepare(c)
	if !ok {
		return
	}
	filtered, err := report.Apply(records, q.spec)
	if err != nil {
		writeError(c, err)
		return
	}
	profile, err := report.Profile(filtered, c.Param("site"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if kind := common.Kind(err); kind != "" {
		body["kind"] = kind
	}

	var dimErr *common.InvalidDimensionError
	var schemaErr *common.SchemaMismatchError
	switch {
	case errors.As(err, &dimErr):
		body["dimension"] = dimErr.Dimension
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, errBadThreshold), errors.Is(err, model.ErrUnknownMetric):
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &schemaErr):
		body["field"] = schemaErr.Field
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, body)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		_ = c.Error(err)
	}
}
