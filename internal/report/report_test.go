package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

const tolerance = 1e-9

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func rec(site, state, tech string, m time.Time, kwh, rev, pen float64) model.Record {
	return model.Record{
		Site:              site,
		StateCode:         state,
		Technology:        tech,
		QCA:               "Reconnect",
		PowerSaleCategory: "PPA",
		Connectivity:      "CTU",
		FiscalYear:        model.FiscalYearOf(m),
		Month:             m,
		MeasuredEnergyKWh: kwh,
		ActualRevenueINR:  rev,
		TotalPenaltyINR:   pen,
	}
}

func fixture() []model.Record {
	return []model.Record{
		rec("A", "GJ", "Solar", month(2025, time.April), 5_000_000, 150_000_000, 7_500_000),
		rec("B", "RJ", "Wind", month(2025, time.April), 2_000_000, 40_000_000, 200_000),
		rec("A", "GJ", "Solar", month(2025, time.May), 4_500_000, 135_000_000, 6_750_000),
		rec("C", "GJ", "Wind", month(2025, time.May), 1_000_000, 20_000_000, 0),
		rec("B", "RJ", "Wind", month(2025, time.May), 3_000_000, 60_000_000, 0),
		rec("A", "GJ", "Solar", month(2025, time.June), 5_500_000, 165_000_000, 8_250_000),
	}
}

func TestCompute_WorkedExample(t *testing.T) {
	records := []model.Record{
		rec("A", "GJ", "Solar", month(2025, time.April), 5_000_000, 150_000_000, 7_500_000),
		rec("A", "GJ", "Solar", month(2025, time.May), 4_500_000, 135_000_000, 6_750_000),
		rec("A", "GJ", "Solar", month(2025, time.June), 5_500_000, 165_000_000, 8_250_000),
	}

	kpis, err := Compute(records)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, kpis.GenerationMU, tolerance)
	assert.InDelta(t, 45.0, kpis.RevenueCr, tolerance)
	assert.InDelta(t, 2.25, kpis.PenaltyCr, tolerance)
	assert.InDelta(t, 5.0, kpis.LossPct, tolerance)
	assert.InDelta(t, 95.0, kpis.EfficiencyScore, tolerance)
	assert.InDelta(t, 100.0, kpis.EfficiencyScore+kpis.LossPct, tolerance)
}

func TestCompute_Empty(t *testing.T) {
	kpis, err := Compute(nil)
	require.NoError(t, err)
	assert.Equal(t, model.KPISet{EfficiencyScore: 100}, kpis)
}

func TestCompute_ZeroRevenue(t *testing.T) {
	kpis, err := Compute([]model.Record{
		rec("A", "GJ", "Solar", month(2025, time.April), 1000, 0, 500),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, kpis.LossPct)
	assert.Equal(t, 100.0, kpis.EfficiencyScore)
	assert.InDelta(t, 500/model.INRPerCrore, kpis.PenaltyCr, tolerance)
}

func TestCompute_Idempotent(t *testing.T) {
	records := fixture()
	first, err := Compute(records)
	require.NoError(t, err)
	second, err := Compute(records)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompute_SchemaMismatch(t *testing.T) {
	records := fixture()
	records[2].TotalPenaltyINR = -1

	_, err := Compute(records)
	require.Error(t, err)
	var sm *common.SchemaMismatchError
	require.True(t, errors.As(err, &sm))
	assert.Equal(t, model.ColumnTotalPenalty, sm.Field)
}

func TestApply(t *testing.T) {
	records := fixture()

	tests := []struct {
		spec  model.FilterSpec
		name  string
		sites []string
	}{
		{name: "empty spec is identity", spec: model.FilterSpec{}, sites: []string{"A", "B", "A", "C", "B", "A"}},
		{name: "empty value set is unconstrained", spec: model.FilterSpec{"state": {}}, sites: []string{"A", "B", "A", "C", "B", "A"}},
		{name: "single dimension", spec: model.FilterSpec{"state": {"RJ"}}, sites: []string{"B", "B"}},
		{name: "values are OR within a dimension", spec: model.FilterSpec{"site": {"C", "B"}}, sites: []string{"B", "C", "B"}},
		{name: "dimensions are AND", spec: model.FilterSpec{"state": {"GJ"}, "technology": {"Wind"}}, sites: []string{"C"}},
		{name: "unknown value yields empty", spec: model.FilterSpec{"qca": {"Nobody"}}, sites: []string{}},
		{name: "frequency does not constrain", spec: model.FilterSpec{"frequency": {"quarter"}}, sites: []string{"A", "B", "A", "C", "B", "A"}},
		{name: "fiscal year", spec: model.FilterSpec{"fiscal_year": {"FY2026"}, "category": {"PPA"}, "connectivity": {"CTU"}}, sites: []string{"A", "B", "A", "C", "B", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(records, tt.spec)
			require.NoError(t, err)
			sites := make([]string, 0, len(got))
			for _, r := range got {
				sites = append(sites, r.Site)
			}
			assert.Equal(t, tt.sites, sites)
		})
	}
}

func TestApply_IdentityAndIdempotence(t *testing.T) {
	records := fixture()

	same, err := Apply(records, model.FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, records, same)

	spec := model.FilterSpec{"technology": {"Wind"}}
	once, err := Apply(records, spec)
	require.NoError(t, err)
	twice, err := Apply(once, spec)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	records := fixture()
	before := fixture()

	out, err := Apply(records, model.FilterSpec{"site": {"A"}})
	require.NoError(t, err)
	out[0].Site = "mutated"

	assert.Equal(t, before, records)
}

func TestApply_InvalidDimension(t *testing.T) {
	_, err := Apply(fixture(), model.FilterSpec{"sate": {"GJ"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidFilterDimension)
	assert.Equal(t, "InvalidFilterDimension", common.Kind(err))
}

func TestSummarize_ByState(t *testing.T) {
	records := fixture()
	records[0].StateName = "Gujarat"

	got, err := Summarize(records, model.GroupState, model.DefaultRiskThreshold)
	require.NoError(t, err)
	require.Len(t, got, 2)

	gj := got[0]
	assert.Equal(t, "GJ", gj.Key)
	assert.Equal(t, "GJ", gj.StateCode)
	assert.Equal(t, "Gujarat", gj.Label)
	assert.Equal(t, 4, gj.Records)
	assert.Equal(t, 2, gj.Sites)
	assert.InDelta(t, 16.0, gj.GenerationMU, tolerance)
	assert.InDelta(t, 47.0, gj.RevenueCr, tolerance)
	assert.InDelta(t, 2.25, gj.PenaltyCr, tolerance)
	assert.InDelta(t, 2.25/47*100, gj.LossPct, tolerance)
	assert.Equal(t, model.RiskLow, gj.RiskLevel)

	rj := got[1]
	assert.Equal(t, "RJ", rj.Key)
	assert.Equal(t, "RJ", rj.Label)
	assert.InDelta(t, 0.2, rj.LossPct, tolerance)

	strict, err := Summarize(records, model.GroupState, 3.0)
	require.NoError(t, err)
	assert.Equal(t, model.RiskHigh, strict[0].RiskLevel)
	assert.Equal(t, model.RiskLow, strict[1].RiskLevel)
}

func TestSummarize_StateCodePassThrough(t *testing.T) {
	records := []model.Record{rec("Z", "XX-UNKNOWN", "Solar", month(2025, time.April), 1, 1, 0)}
	got, err := Summarize(records, model.GroupState, model.DefaultRiskThreshold)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "XX-UNKNOWN", got[0].StateCode)
}

func TestSummarize_OtherKeys(t *testing.T) {
	for _, key := range []model.GroupKey{model.GroupSite, model.GroupCategory, model.GroupQCA, model.GroupTechnology} {
		t.Run(string(key), func(t *testing.T) {
			got, err := Summarize(fixture(), key, model.DefaultRiskThreshold)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			for _, s := range got {
				assert.Empty(t, s.StateCode)
			}
		})
	}

	got, err := Summarize(nil, model.GroupSite, model.DefaultRiskThreshold)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Summarize(fixture(), model.GroupKey("region"), model.DefaultRiskThreshold)
	assert.ErrorIs(t, err, common.ErrInvalidFilterDimension)
}

func TestTopN(t *testing.T) {
	summaries := []model.GroupSummary{
		{Key: "A", PenaltyCr: 10},
		{Key: "B", PenaltyCr: 30},
		{Key: "C", PenaltyCr: 20},
	}

	got := TopN(summaries, model.MetricPenalty, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Key)
	assert.Equal(t, "C", got[1].Key)
	assert.Equal(t, "A", summaries[0].Key, "input order must be preserved")

	assert.Len(t, TopN(summaries, model.MetricPenalty, 10), 3)
	assert.Empty(t, TopN(summaries, model.MetricPenalty, 0))
}

func TestTopN_TiesByKey(t *testing.T) {
	summaries := []model.GroupSummary{
		{Key: "delta", GenerationMU: 5},
		{Key: "alpha", GenerationMU: 5},
		{Key: "charlie", GenerationMU: 9},
		{Key: "bravo", GenerationMU: 5},
	}
	got := TopN(summaries, model.MetricGeneration, 3)
	keys := []string{got[0].Key, got[1].Key, got[2].Key}
	assert.Equal(t, []string{"charlie", "alpha", "bravo"}, keys)
}

func TestComplete(t *testing.T) {
	summaries := []model.GroupSummary{{Key: "Reconnect", PenaltyCr: 1}}
	master := []string{"Climate Connect", "Reconnect", "Manikaran", "Unilink"}

	got := Complete(summaries, master, model.DefaultRiskThreshold)
	require.Len(t, got, 4)
	assert.Equal(t, "Reconnect", got[0].Key)
	assert.False(t, got[0].NoData)
	assert.Equal(t, []string{"Climate Connect", "Manikaran", "Unilink"}, []string{got[1].Key, got[2].Key, got[3].Key})
	for _, s := range got[1:] {
		assert.True(t, s.NoData)
		assert.Zero(t, s.PenaltyCr)
	}

	high, low := CountRisk(got)
	assert.Equal(t, 0, high)
	assert.Equal(t, 1, low)
}

func TestTrend_Monthly(t *testing.T) {
	records := fixture()
	points, err := Trend(records, model.FrequencyMonth, model.DefaultLineBoundary)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "2025-04", points[0].Label)
	assert.Equal(t, "2025-05", points[1].Label)
	assert.Equal(t, "2025-06", points[2].Label)

	// April: penalty 0.77 Cr on revenue 19 Cr.
	assert.InDelta(t, 0.77/19*100, points[0].LossPct, tolerance)
	assert.Equal(t, model.LineBreach, points[0].Line)
}

func TestTrend_QuarterAndLineBoundary(t *testing.T) {
	records := []model.Record{
		rec("A", "GJ", "Solar", month(2025, time.June), 1, 100_000_000, 500_000),
		rec("A", "GJ", "Solar", month(2025, time.April), 1, 100_000_000, 500_000),
		rec("A", "GJ", "Solar", month(2026, time.February), 1, 100_000_000, 0),
	}
	points, err := Trend(records, model.FrequencyQuarter, model.DefaultLineBoundary)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "FY2026 Q1", points[0].Label)
	assert.InDelta(t, 0.5, points[0].LossPct, tolerance)
	assert.Equal(t, model.LineOnTarget, points[0].Line)
	assert.Equal(t, "FY2026 Q4", points[1].Label)

	_, err = Trend(records, model.Frequency("weekly"), model.DefaultLineBoundary)
	assert.ErrorIs(t, err, common.ErrInvalidFilterDimension)
}

func TestTotals(t *testing.T) {
	p, err := Totals(fixture())
	require.NoError(t, err)
	assert.Equal(t, 6, p.Records)
	assert.Equal(t, 3, p.Sites)
	assert.Equal(t, 2, p.States)
	assert.Equal(t, "2025-04", p.FirstMonth)
	assert.Equal(t, "2025-06", p.LastMonth)
}
