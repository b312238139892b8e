package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dsm-insight/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticSource struct {
	records []model.Record
	err     error
}

func (s staticSource) EnrichedRecords(context.Context) ([]model.Record, error) {
	return s.records, s.err
}

func month(m time.Month) time.Time {
	return time.Date(2025, m, 1, 0, 0, 0, 0, time.UTC)
}

func testRecords() []model.Record {
	return []model.Record{
		{Site: "A", StateCode: "GJ", StateName: "Gujarat", Technology: "Solar", QCA: "Reconnect", Month: month(time.April), MeasuredEnergyKWh: 5_000_000, ActualRevenueINR: 150_000_000, TotalPenaltyINR: 7_500_000},
		{Site: "A", StateCode: "GJ", StateName: "Gujarat", Technology: "Solar", QCA: "Reconnect", Month: month(time.May), MeasuredEnergyKWh: 4_500_000, ActualRevenueINR: 135_000_000, TotalPenaltyINR: 6_750_000},
		{Site: "A", StateCode: "GJ", StateName: "Gujarat", Technology: "Solar", QCA: "Reconnect", Month: month(time.June), MeasuredEnergyKWh: 5_500_000, ActualRevenueINR: 165_000_000, TotalPenaltyINR: 8_250_000},
		{Site: "B", StateCode: "RJ", Technology: "Wind", QCA: "Unilink", Month: month(time.April), MeasuredEnergyKWh: 2_000_000, ActualRevenueINR: 40_000_000, TotalPenaltyINR: 200_000},
	}
}

func newTestRouter(src RecordSource) *gin.Engine {
	settings := DefaultSettings()
	settings.QCAMaster = []string{"Climate Connect", "Reconnect"}
	return NewRouter(NewHandler(src, settings))
}

func get(t *testing.T, router http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func TestHealth(t *testing.T) {
	w, body := get(t, newTestRouter(staticSource{}), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestKPIs_Filtered(t *testing.T) {
	router := newTestRouter(staticSource{records: testRecords()})

	w, body := get(t, router, "/api/v1/kpis?site=A")
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 15.0, body["generation_mu"], 1e-9)
	assert.InDelta(t, 45.0, body["revenue_cr"], 1e-9)
	assert.InDelta(t, 2.25, body["penalty_cr"], 1e-9)
	assert.InDelta(t, 5.0, body["loss_pct"], 1e-9)
	assert.InDelta(t, 95.0, body["efficiency_score"], 1e-9)
}

func TestKPIs_UnknownDimension(t *testing.T) {
	router := newTestRouter(staticSource{records: testRecords()})

	w, body := get(t, router, "/api/v1/kpis?color=red")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidFilterDimension", body["kind"])
	assert.Equal(t, "color", body["dimension"])
}

func TestSummary(t *testing.T) {
	router := newTestRouter(staticSource{records: testRecords()})

	w, body := get(t, router, "/api/v1/summary/state?threshold=3")
	require.Equal(t, http.StatusOK, w.Code)
	groups, ok := body["groups"].([]any)
	require.True(t, ok)
	require.Len(t, groups, 2)

	gj := groups[0].(map[string]any)
	assert.Equal(t, "GJ", gj["key"])
	assert.Equal(t, "Gujarat", gj["label"])
	assert.Equal(t, "high-risk", gj["risk_level"])
	assert.Equal(t, "low-risk", groups[1].(map[string]any)["risk_level"])

	w, body = get(t, router, "/api/v1/summary/colour")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidFilterDimension", body["kind"])

	w, _ = get(t, router, "/api/v1/summary/state?threshold=-2")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrend_Frequency(t *testing.T) {
	router := newTestRouter(staticSource{records: testRecords()})

	_, body := get(t, router, "/api/v1/trend")
	assert.Equal(t, "month", body["frequency"])
	assert.Len(t, body["points"], 3)

	_, body = get(t, router, "/api/v1/trend?frequency=quarter")
	assert.Equal(t, "quarter", body["frequency"])
	points := body["points"].([]any)
	require.Len(t, points, 1)
	assert.Equal(t, "FY2026 Q1", points[0].(map[string]any)["label"])

	w, body := get(t, router, "/api/v1/trend?frequency=weekly")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "frequency", body["dimension"])
}

func TestTrend_FrequencySpellingsResolveStably(t *testing.T) {
	router := newTestRouter(staticSource{records: testRecords()})

	for i := 0; i < 20; i++ {
		w, body := get(t, router, "/api/v1/trend?frequency=month&Frequency=quarter")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "quarter", body["frequency"])
	}
}

func TestDrillDownState(t *testing.T) {
	router := newTestRouter(staticSource{records: testRecords()})

	w, body := get(t, router, "/api/v1/drilldown/state/GJ")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GJ", body["state_code"])
	assert.EqualValues(t, 3, body["records"])

	_, body = get(t, router, "/api/v1/drilldown/state/GJ?technology=Wind")
	assert.EqualValues(t, 0, body["records"])
}

func TestDrillDownSites_KeepsOrder(t *testing.T) {
	router := newTestRouter(staticSource{records: testRecords()})

	w, body := get(t, router, "/api/v1/drilldown/sites?compare=B&compare=A&compare=Z")
	require.Equal(t, http.StatusOK, w.Code)
	sites := body["sites"].([]any)
	require.Len(t, sites, 3)
	assert.Equal(t, "B", sites[0].(map[string]any)["site"])
	assert.Equal(t, "A", sites[1].(map[string]any)["site"])
	z := sites[2].(map[string]any)
	assert.Equal(t, true, z["summary"].(map[string]any)["no_data"])
}

func TestDrillDownSites_CleansNames(t *testing.T) {
	records := append(testRecords(), model.Record{
		Site: "WASHI", StateCode: "MH", Technology: "Solar", QCA: "Reconnect", Month: month(time.April),
		MeasuredEnergyKWh: 1_000_000, ActualRevenueINR: 30_000_000, TotalPenaltyINR: 300_000,
	})
	router := newTestRouter(staticSource{records: records})

	w, body := get(t, router, "/api/v1/drilldown/sites?compare=washi1&compare=%20b%20&compare=")
	require.Equal(t, http.StatusOK, w.Code)
	sites := body["sites"].([]any)
	require.Len(t, sites, 2)

	washi := sites[0].(map[string]any)
	assert.Equal(t, "WASHI", washi["site"])
	assert.NotContains(t, washi["summary"].(map[string]any), "no_data")
	assert.Equal(t, "B", sites[1].(map[string]any)["site"])
}

func TestPortfolio(t *testing.T) {
	router := newTestRouter(staticSource{records: testRecords()})

	w, body := get(t, router, "/api/v1/portfolio")
	require.Equal(t, http.StatusOK, w.Code)

	pareto := body["pareto"].([]any)
	assert.Equal(t, "A", pareto[0].(map[string]any)["key"])

	qca := body["qca"].([]any)
	require.Len(t, qca, 3)
	assert.Equal(t, "Climate Connect", qca[2].(map[string]any)["key"])
	assert.Equal(t, true, qca[2].(map[string]any)["no_data"])
}

func TestSiteProfile(t *testing.T) {
	router := newTestRouter(staticSource{records: testRecords()})

	w, body := get(t, router, "/api/v1/sites/A")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, body["data_points"])

	w, _ = get(t, router, "/api/v1/sites/NOPE")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSourceFailure(t *testing.T) {
	router := newTestRouter(staticSource{err: errors.New("database is locked")})

	w, body := get(t, router, "/api/v1/kpis")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", body["error"])
}

func TestSchemaMismatch(t *testing.T) {
	bad := testRecords()
	bad[0].MeasuredEnergyKWh = -5
	router := newTestRouter(staticSource{records: bad})

	w, body := get(t, router, "/api/v1/kpis")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "SchemaMismatch", body["kind"])
}
