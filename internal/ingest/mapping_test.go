package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

const mappingCSV = `Site,Connectivity,Plant_AC_Capacity,PPA_Rate,Technology,QCA,Power_Sale_Category,State,State_Code
alpha,CTU,50,2.75,Solar,reconnect,PPA,Gujarat,GJ
beta,STU,,3.1,Wind,unilink,Merchant,Rajasthan,
alpha,CTU,55,2.75,Solar,reconnect,PPA,Gujarat,GJ
`

func TestReadMapping(t *testing.T) {
	mappings, err := NewReader(DefaultOptions()).ReadMapping(context.Background(), strings.NewReader(mappingCSV))
	require.NoError(t, err)
	require.Len(t, mappings, 2)

	assert.Equal(t, "ALPHA", mappings[0].Site)
	assert.Equal(t, 55.0, mappings[0].PlantCapacityMW)
	assert.Equal(t, "Reconnect", mappings[0].QCA)
	assert.Equal(t, "BETA", mappings[1].Site)
	assert.Equal(t, "Rajasthan", mappings[1].StateName)
	assert.Empty(t, mappings[1].StateCode)
}

func TestReadMapping_RequiresSite(t *testing.T) {
	_, err := NewReader(DefaultOptions()).ReadMapping(context.Background(), strings.NewReader("State,QCA\nGJ,Reconnect\n"))
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestEnrich_FillsOnlyMissing(t *testing.T) {
	m := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	records := []model.Record{
		{Site: "ALPHA", Month: m, Technology: "Hybrid"},
		{Site: "BETA", Month: m},
		{Site: "GAMMA", Month: m, StateName: "Karnataka"},
	}
	mappings := []model.SiteMapping{
		{Site: "ALPHA", Technology: "Solar", StateCode: "GJ", StateName: "Gujarat", PlantCapacityMW: 50},
		{Site: "BETA", StateName: "Rajasthan", QCA: "Unilink"},
	}

	got := Enrich(records, mappings)
	require.Len(t, got, 3)

	assert.Equal(t, "Hybrid", got[0].Technology)
	assert.Equal(t, "GJ", got[0].StateCode)
	assert.Equal(t, 50.0, got[0].PlantCapacityMW)

	assert.Equal(t, "Unilink", got[1].QCA)
	assert.Equal(t, "Rajasthan", got[1].StateCode, "state name stands in for a missing code")

	assert.Equal(t, "Karnataka", got[2].StateCode)

	assert.Empty(t, records[1].QCA, "input must not be modified")
}
