package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
	"github.com/Veraticus/dsm-insight/internal/storage"
)

func TestRemarksLifecycle(t *testing.T) {
	cfg := testConfig(t)

	require.NoError(t, execute(t, remarksCmd(), "remarks", "add",
		"--site", "washi1", "--title", "Inverter trips", "--priority", "high",
		"--category", "performance issue", "--due", "2025-06-30", "-o", "json"))
	require.NoError(t, execute(t, remarksCmd(), "remarks", "add",
		"--site", "beta", "--title", "Meter read", "--status", "in-progress", "-o", "json"))

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	washi, err := store.Remarks(ctx, model.RemarkFilter{Site: "WASHI"})
	require.NoError(t, err)
	require.Len(t, washi, 1)
	assert.Equal(t, model.PriorityHigh, washi[0].Priority)
	assert.Equal(t, "Performance Issue", washi[0].Category)
	assert.Equal(t, model.RemarkOpen, washi[0].Status)
	require.NotNil(t, washi[0].DueDate)

	assert.NoError(t, execute(t, remarksCmd(), "remarks", "list", "--status", "In Progress", "-o", "yaml"))
	assert.NoError(t, execute(t, remarksCmd(), "remarks", "list"))
	assert.ErrorIs(t, execute(t, remarksCmd(), "remarks", "list", "--priority", "urgent"), common.ErrInvalidRemark)

	id := washi[0].ID
	require.NoError(t, execute(t, remarksCmd(), "remarks", "status", "1", "resolved"))
	counts, err := store.RemarkStatusCounts(ctx, model.RemarkFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.RemarkResolved])
	assert.Equal(t, 1, counts[model.RemarkInProgress])
	assert.Equal(t, int64(1), id)

	out := filepath.Join(t.TempDir(), "remarks.csv")
	require.NoError(t, execute(t, remarksCmd(), "remarks", "export", out, "--site", "WASHI"))
	f, err := os.Open(out)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "WASHI", rows[1][1])
	assert.Equal(t, "Resolved", rows[1][6])

	require.NoError(t, execute(t, remarksCmd(), "remarks", "rm", "1"))
	assert.ErrorIs(t, execute(t, remarksCmd(), "remarks", "rm", "1"), common.ErrNotFound)
	assert.ErrorIs(t, execute(t, remarksCmd(), "remarks", "rm", "abc"), common.ErrInvalidRemark)
}

func TestRemarksAdd_RequiresTitle(t *testing.T) {
	testConfig(t)
	assert.Error(t, execute(t, remarksCmd(), "remarks", "add", "--site", "alpha"))
	assert.ErrorIs(t, execute(t, remarksCmd(), "remarks", "add", "--site", "alpha", "--title", "x", "--due", "30/06/2025"),
		common.ErrInvalidRemark)
}
