package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func testRecords() []model.Record {
	return []model.Record{
		{Site: "ALPHA", Month: month(2025, time.April), StateCode: "GJ", StateName: "Gujarat", Technology: "Solar", QCA: "Reconnect", FiscalYear: "FY2026", MeasuredEnergyKWh: 10_000_000, ActualRevenueINR: 200_000_000, TotalPenaltyINR: 1_000_000},
		{Site: "BETA", Month: month(2025, time.April), StateCode: "RJ", Technology: "Wind", QCA: "Unilink", FiscalYear: "FY2026", MeasuredEnergyKWh: 5_000_000, ActualRevenueINR: 100_000_000},
		{Site: "ALPHA", Month: month(2025, time.May), StateCode: "GJ", StateName: "Gujarat", Technology: "Solar", QCA: "Reconnect", FiscalYear: "FY2026", MeasuredEnergyKWh: 12_000_000, ActualRevenueINR: 240_000_000, TotalPenaltyINR: 2_400_000},
	}
}

func TestMigrate_ReachesExpectedVersion(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	require.NoError(t, store.Migrate(ctx), "re-running migrations is a no-op")
}

func TestSaveRecords_InsertAndRead(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	stats, err := store.SaveRecords(ctx, testRecords(), SaveOptions{Source: "april.csv"})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Inserted)
	assert.Equal(t, 3, stats.Total)
	assert.NotEmpty(t, stats.BatchID)

	got, err := store.Records(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "ALPHA", got[0].Site)
	assert.Equal(t, month(2025, time.April), got[0].Month)
	assert.Equal(t, "BETA", got[1].Site)
	assert.Equal(t, month(2025, time.May), got[2].Month)
	assert.Equal(t, 2_400_000.0, got[2].TotalPenaltyINR)
	assert.Equal(t, "Reconnect", got[2].QCA)

	n, err := store.RecordCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSaveRecords_OverwriteAndSkip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveRecords(ctx, testRecords(), SaveOptions{})
	require.NoError(t, err)

	changed := testRecords()[:1]
	changed[0].TotalPenaltyINR = 5_000_000

	stats, err := store.SaveRecords(ctx, changed, SaveOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Updated)

	got, err := store.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1_000_000.0, got[0].TotalPenaltyINR)

	stats, err = store.SaveRecords(ctx, changed, SaveOptions{Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	got, err = store.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5_000_000.0, got[0].TotalPenaltyINR)
	assert.Len(t, got, 3)
}

func TestSaveRecords_RejectsInvalid(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveRecords(ctx, nil, SaveOptions{})
	require.ErrorIs(t, err, ErrEmptySlice)

	bad := testRecords()
	bad[1].MeasuredEnergyKWh = -1
	_, err = store.SaveRecords(ctx, bad, SaveOptions{})
	require.ErrorIs(t, err, common.ErrSchemaMismatch)

	n, err := store.RecordCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngestionLogs(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first, err := store.SaveRecords(ctx, testRecords()[:1], SaveOptions{Source: "a.csv"})
	require.NoError(t, err)
	second, err := store.SaveRecords(ctx, testRecords()[1:], SaveOptions{Source: "b.csv"})
	require.NoError(t, err)

	logs, err := store.IngestionLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, second.BatchID, logs[0].BatchID)
	assert.Equal(t, first.BatchID, logs[1].BatchID)
	assert.Equal(t, IngestStatusSuccess, logs[0].Status)
	assert.Equal(t, 2, logs[0].Inserted)
	assert.Equal(t, "b.csv", logs[0].Source)

	logs, err = store.IngestionLogs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	_, err = store.IngestionLogs(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestDeleteBatch(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveRecords(ctx, testRecords()[:2], SaveOptions{})
	require.NoError(t, err)
	stats, err := store.SaveRecords(ctx, testRecords()[2:], SaveOptions{})
	require.NoError(t, err)

	removed, err := store.DeleteBatch(ctx, stats.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := store.RecordCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = store.DeleteBatch(ctx, " ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSiteMappings_UpsertAndEnrich(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveRecords(ctx, testRecords(), SaveOptions{})
	require.NoError(t, err)

	require.NoError(t, store.SaveSiteMappings(ctx, []model.SiteMapping{
		{Site: "BETA", StateName: "Rajasthan", Connectivity: "STU"},
	}))
	require.NoError(t, store.SaveSiteMappings(ctx, []model.SiteMapping{
		{Site: "BETA", StateName: "Rajasthan", Connectivity: "CTU", PlantCapacityMW: 40},
	}))

	mappings, err := store.SiteMappings(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "CTU", mappings[0].Connectivity)

	records, err := store.EnrichedRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "BETA", records[1].Site)
	assert.Equal(t, "Rajasthan", records[1].StateName)
	assert.Equal(t, "RJ", records[1].StateCode, "stored code wins over mapping")
	assert.Equal(t, 40.0, records[1].PlantCapacityMW)

	err = store.SaveSiteMappings(ctx, []model.SiteMapping{{StateCode: "GJ"}})
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSelections(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	sel := model.Selection{State: "GJ", Sites: []string{"ALPHA", "BETA"}}
	require.NoError(t, store.SaveSelection(ctx, "west", sel))

	got, err := store.LoadSelection(ctx, "west")
	require.NoError(t, err)
	assert.Equal(t, sel, got)

	require.NoError(t, store.SaveSelection(ctx, "west", model.Selection{}))
	got, err = store.LoadSelection(ctx, "west")
	require.NoError(t, err)
	assert.Empty(t, got.State)
	assert.Empty(t, got.Sites)

	_, err = store.LoadSelection(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	names, err := store.SelectionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"west"}, names)

	assert.ErrorIs(t, store.SaveSelection(ctx, "../etc", sel), ErrInvalidName)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"nil context", validateContext(nil), ErrNilContext}, //nolint:staticcheck // exercising the nil guard
		{"blank string", validateString("  ", "x"), ErrEmptyString},
		{"path name", validateName("a/b"), ErrInvalidName},
		{"dotted name", validateName(".."), ErrInvalidName},
		{"empty mappings", validateMappings(nil), ErrEmptySlice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.wantErr)
		})
	}

	assert.NoError(t, validateName("checkpoint-1"))
}
