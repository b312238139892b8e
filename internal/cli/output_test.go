package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dsm-insight/internal/model"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	kpis := model.KPISet{GenerationMU: 15, LossPct: 5}

	var js bytes.Buffer
	require.NoError(t, Encode(&js, FormatJSON, kpis))
	assert.Contains(t, js.String(), `"generation_mu": 15`)
	assert.Contains(t, js.String(), `"loss_pct": 5`)

	var ym bytes.Buffer
	require.NoError(t, Encode(&ym, FormatYAML, kpis))
	assert.Contains(t, ym.String(), "generation_mu: 15")

	assert.Error(t, Encode(&bytes.Buffer{}, FormatTable, kpis))
}
