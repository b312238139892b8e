package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

func seedRemarks(t *testing.T, store *SQLiteStorage) []model.Remark {
	t.Helper()
	ctx := context.Background()
	due := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	base := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

	inputs := []model.Remark{
		{Site: "ALPHA", Category: "Performance Issue", Priority: model.PriorityHigh, Status: model.RemarkOpen, Title: "Inverter trips", DueDate: &due, CreatedBy: "ops", CreatedAt: base},
		{Site: "ALPHA", Category: "Data Anomaly", Priority: model.PriorityLow, Status: model.RemarkResolved, Title: "Missing May meter read", CreatedAt: base.Add(time.Hour)},
		{Site: "BETA", Category: "Maintenance Required", Priority: model.PriorityHigh, Status: model.RemarkInProgress, Title: "Blade inspection", Details: "Crane booked", CreatedAt: base.Add(2 * time.Hour)},
	}
	out := make([]model.Remark, 0, len(inputs))
	for _, in := range inputs {
		r, err := store.AddRemark(ctx, in)
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

func TestAddRemark_RoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	added := seedRemarks(t, store)

	assert.NotZero(t, added[0].ID)
	assert.NotEqual(t, added[0].ID, added[1].ID)

	all, err := store.Remarks(ctx, model.RemarkFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "BETA", all[0].Site, "newest first")
	assert.Equal(t, "Crane booked", all[0].Details)

	first := all[2]
	assert.Equal(t, added[0].ID, first.ID)
	assert.Equal(t, "Inverter trips", first.Title)
	assert.Equal(t, model.PriorityHigh, first.Priority)
	assert.Equal(t, "ops", first.CreatedBy)
	require.NotNil(t, first.DueDate)
	assert.Equal(t, time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC), *first.DueDate)
	assert.True(t, first.CreatedAt.Equal(time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)))
	assert.Nil(t, all[1].DueDate)
}

func TestAddRemark_Rejects(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	valid := model.Remark{Site: "ALPHA", Category: "Other", Priority: model.PriorityMedium, Status: model.RemarkOpen, Title: "Check"}

	tests := []struct {
		name   string
		mutate func(*model.Remark)
	}{
		{name: "missing title", mutate: func(r *model.Remark) { r.Title = "  " }},
		{name: "missing site", mutate: func(r *model.Remark) { r.Site = "" }},
		{name: "unknown status", mutate: func(r *model.Remark) { r.Status = "Parked" }},
		{name: "unknown priority", mutate: func(r *model.Remark) { r.Priority = "Urgent" }},
		{name: "unknown category", mutate: func(r *model.Remark) { r.Category = "Gossip" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			_, err := store.AddRemark(ctx, r)
			assert.ErrorIs(t, err, common.ErrInvalidRemark)
		})
	}

	all, err := store.Remarks(ctx, model.RemarkFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRemarks_Filter(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedRemarks(t, store)

	tests := []struct {
		name   string
		filter model.RemarkFilter
		titles []string
	}{
		{name: "by site", filter: model.RemarkFilter{Site: "ALPHA"}, titles: []string{"Missing May meter read", "Inverter trips"}},
		{name: "by status", filter: model.RemarkFilter{Status: model.RemarkInProgress}, titles: []string{"Blade inspection"}},
		{name: "by priority", filter: model.RemarkFilter{Priority: model.PriorityHigh}, titles: []string{"Blade inspection", "Inverter trips"}},
		{name: "by category", filter: model.RemarkFilter{Category: "Data Anomaly"}, titles: []string{"Missing May meter read"}},
		{name: "combined", filter: model.RemarkFilter{Site: "BETA", Priority: model.PriorityLow}, titles: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Remarks(ctx, tt.filter)
			require.NoError(t, err)
			titles := make([]string, 0, len(got))
			for _, r := range got {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestRemarkStatusCounts(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedRemarks(t, store)

	counts, err := store.RemarkStatusCounts(ctx, model.RemarkFilter{})
	require.NoError(t, err)
	assert.Equal(t, map[model.RemarkStatus]int{
		model.RemarkOpen:       1,
		model.RemarkInProgress: 1,
		model.RemarkOnHold:     0,
		model.RemarkResolved:   1,
		model.RemarkClosed:     0,
	}, counts)

	counts, err = store.RemarkStatusCounts(ctx, model.RemarkFilter{Site: "BETA"})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.RemarkInProgress])
	assert.Equal(t, 0, counts[model.RemarkOpen])
}

func TestUpdateRemarkStatus(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	added := seedRemarks(t, store)

	require.NoError(t, store.UpdateRemarkStatus(ctx, added[0].ID, "on hold"))
	got, err := store.Remarks(ctx, model.RemarkFilter{Status: model.RemarkOnHold})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, added[0].ID, got[0].ID)

	assert.ErrorIs(t, store.UpdateRemarkStatus(ctx, added[0].ID, "Parked"), common.ErrInvalidRemark)
	assert.ErrorIs(t, store.UpdateRemarkStatus(ctx, 9999, model.RemarkClosed), common.ErrNotFound)
}

func TestDeleteRemark(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	added := seedRemarks(t, store)

	require.NoError(t, store.DeleteRemark(ctx, added[1].ID))
	all, err := store.Remarks(ctx, model.RemarkFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, store.DeleteRemark(ctx, added[1].ID), common.ErrNotFound)
}
