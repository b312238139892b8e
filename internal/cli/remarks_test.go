package cli

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dsm-insight/internal/model"
)

func testRemarks() []model.Remark {
	due := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	return []model.Remark{
		{ID: 2, Site: "BETA", Category: "Data Anomaly", Priority: model.PriorityLow, Status: model.RemarkResolved,
			Title: "Meter read, May", CreatedAt: time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)},
		{ID: 1, Site: "ALPHA", Category: "Performance Issue", Priority: model.PriorityHigh, Status: model.RemarkOpen,
			Title: "Inverter trips", Details: "Two trips\nper day", DueDate: &due, CreatedBy: "ops",
			CreatedAt: time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)},
	}
}

func TestFormatter_Remarks(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	counts := map[model.RemarkStatus]int{model.RemarkOpen: 1, model.RemarkResolved: 1}

	require.NoError(t, f.Remarks(testRemarks(), counts, time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC)))
	out := buf.String()
	for _, want := range []string{"Remarks", "Inverter trips", "ALPHA", "High", "2025-06-30", "In Progress", "On Hold"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, WarningIcon, "open remark past its due date is flagged")

	buf.Reset()
	require.NoError(t, f.Remarks(nil, nil, time.Now()))
	assert.Contains(t, buf.String(), "No remarks match")
}

func TestWriteRemarksCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRemarksCSV(&buf, testRemarks()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, RemarkCSVHeader, rows[0])
	assert.Equal(t, []string{"2", "BETA", "Data Anomaly", "Low", "Meter read, May", "", "Resolved", "", "2025-06-02T08:00:00Z", ""}, rows[1])
	assert.Equal(t, "Two trips\nper day", rows[2][5])
	assert.Equal(t, "2025-06-30", rows[2][7])
}

func TestWriteRemarksCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRemarksCSV(&buf, nil))
	assert.Equal(t, "id,site,category,priority,title,details,status,due_date,created_at,created_by\n", buf.String())
}
