package report

import (
	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

// SiteProfile describes one site from its records.
type SiteProfile struct {
	Site              string       `json:"site" yaml:"site"`
	StateCode         string       `json:"state_code,omitempty" yaml:"state_code,omitempty"`
	StateName         string       `json:"state_name,omitempty" yaml:"state_name,omitempty"`
	Technology        string       `json:"technology,omitempty" yaml:"technology,omitempty"`
	Connectivity      string       `json:"connectivity,omitempty" yaml:"connectivity,omitempty"`
	PowerSaleCategory string       `json:"power_sale_category,omitempty" yaml:"power_sale_category,omitempty"`
	QCA               string       `json:"qca,omitempty" yaml:"qca,omitempty"`
	PlantCapacityMW   float64      `json:"plant_capacity_mw,omitempty" yaml:"plant_capacity_mw,omitempty"`
	PPARate           float64      `json:"ppa_rate,omitempty" yaml:"ppa_rate,omitempty"`
	DataPoints        int          `json:"data_points" yaml:"data_points"`
	KPIs              model.KPISet `json:"kpis" yaml:"kpis"`
}

// Profile builds the profile of site. Descriptive attributes come from the
// first record that carries them. A site with no records is ErrNotFound.
func Profile(records []model.Record, site string) (SiteProfile, error) {
	scoped, err := Apply(records, model.FilterSpec{string(model.DimensionSite): {site}})
	if err != nil {
		return SiteProfile{}, err
	}
	if len(scoped) == 0 {
		return SiteProfile{}, common.NewUserError("site "+site, common.ErrNotFound)
	}

	kpis, err := Compute(scoped)
	if err != nil {
		return SiteProfile{}, err
	}

	p := SiteProfile{Site: site, DataPoints: len(scoped), KPIs: kpis}
	for i := range scoped {
		r := &scoped[i]
		firstString(&p.StateCode, r.StateCode)
		firstString(&p.StateName, r.StateName)
		firstString(&p.Technology, r.Technology)
		firstString(&p.Connectivity, r.Connectivity)
		firstString(&p.PowerSaleCategory, r.PowerSaleCategory)
		firstString(&p.QCA, r.QCA)
		if p.PlantCapacityMW == 0 {
			p.PlantCapacityMW = r.PlantCapacityMW
		}
		if p.PPARate == 0 {
			p.PPARate = r.PPARate
		}
	}
	return p, nil
}

func firstString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
