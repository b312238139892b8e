package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dsm-insight/internal/model"
	"github.com/Veraticus/dsm-insight/internal/report"
	"github.com/Veraticus/dsm-insight/internal/storage"
)

func TestFormatter_KPIs(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(&buf).KPIs("Portfolio", model.KPISet{
		GenerationMU: 15, RevenueCr: 45, PenaltyCr: 2.25, LossPct: 5, EfficiencyScore: 95,
	})
	require.NoError(t, err)

	out := buf.String()
	for _, want := range []string{"Portfolio", "Generation (MU)", "15.00", "45.00", "2.25", "5.00%", "95.00"} {
		assert.Contains(t, out, want)
	}
}

func TestFormatter_Summary(t *testing.T) {
	rows := []model.GroupSummary{
		{Key: "GJ", Label: "Gujarat", RevenueCr: 47, PenaltyCr: 2.25, LossPct: 4.79, RiskLevel: model.RiskHigh},
		{Key: "RJ", RevenueCr: 10, PenaltyCr: 0.02, LossPct: 0.2, RiskLevel: model.RiskLow},
		{Key: "Manikaran", NoData: true},
	}
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).Summary(model.GroupState, rows))

	out := buf.String()
	assert.Contains(t, out, "GJ (Gujarat)")
	assert.Contains(t, out, "high-risk")
	assert.Contains(t, out, "no data")
	assert.Contains(t, out, "1 high-risk · 1 low-risk")
}

func TestFormatter_TrendEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).Trend(nil))
	assert.Contains(t, buf.String(), "No data")
}

func TestFormatter_Trend(t *testing.T) {
	points := []model.TrendPoint{
		{Label: "2025-04", LossPct: 0.5, Line: model.LineOnTarget},
		{Label: "2025-05", LossPct: 2, Line: model.LineBreach},
	}
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).Trend(points))
	assert.Contains(t, buf.String(), "2025-05")
	assert.Contains(t, buf.String(), "breach")
}

func TestFormatter_DrillDowns(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)

	require.NoError(t, f.StateDrillDown(report.StateDrillDown{
		StateCode:           "GJ",
		Label:               "Gujarat",
		TopSitesByPenalty:   []report.SitePenalty{{Site: "ALPHA", PenaltyCr: 1.5}},
		TechnologyBreakdown: []report.TechnologyGeneration{{Technology: "Solar", GenerationMU: 20}},
	}))
	require.NoError(t, f.Comparison(report.Comparison{Sites: []report.SiteComparison{
		{Site: "ALPHA", Summary: model.GroupSummary{Key: "ALPHA", LossPct: 3}, Radar: report.RadarScore{Overall: 66.67}},
		{Site: "GHOST", Summary: model.GroupSummary{Key: "GHOST", NoData: true}},
	}}))

	out := buf.String()
	assert.Contains(t, out, "State GJ (Gujarat)")
	assert.Contains(t, out, "ALPHA")
	assert.Contains(t, out, "Solar")
	assert.Contains(t, out, "66.67")
	assert.Contains(t, out, "GHOST")
}

func TestFormatter_StorageViews(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)

	require.NoError(t, f.IngestStats(&storage.IngestStats{BatchID: "b1", Source: "apr.csv", Inserted: 3, Total: 3}, 2, 1))
	require.NoError(t, f.IngestionLogs([]storage.IngestionLog{{
		StartedAt: time.Now(), Source: "apr.csv", Status: storage.IngestStatusFailed, BatchID: "b2",
	}}))
	require.NoError(t, f.Checkpoints([]storage.CheckpointInfo{{ID: "auto-import-1", IsAuto: true, FileSize: 2048, CreatedAt: time.Now()}}))
	require.NoError(t, f.SiteMappings([]model.SiteMapping{{Site: "BETA", StateCode: "RJ", StateName: "Rajasthan", Connectivity: "CTU"}}))
	require.NoError(t, f.SiteMappings(nil))

	out := buf.String()
	assert.Contains(t, out, "inserted 3")
	assert.Contains(t, out, "2 rows dropped")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "(auto)")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "RJ Rajasthan")
	assert.Contains(t, out, "No site mappings")
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", humanSize(512))
	assert.Equal(t, "1.5 KB", humanSize(1536))
	assert.Equal(t, "1.0 MB", humanSize(1<<20))
}
