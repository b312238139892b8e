package report

import (
	"github.com/Veraticus/dsm-insight/internal/model"
)

// totals accumulates raw units for one subset of records.
type totals struct {
	energyKWh  float64
	revenueINR float64
	penaltyINR float64
	records    int
}

func (t *totals) add(r *model.Record) {
	t.energyKWh += r.MeasuredEnergyKWh
	t.revenueINR += r.ActualRevenueINR
	t.penaltyINR += r.TotalPenaltyINR
	t.records++
}

func (t totals) generationMU() float64 { return t.energyKWh / model.KWhPerMU }
func (t totals) revenueCr() float64    { return t.revenueINR / model.INRPerCrore }
func (t totals) penaltyCr() float64    { return t.penaltyINR / model.INRPerCrore }

// lossPct is derived from the converted crore values so displayed cards
// reproduce it.
func (t totals) lossPct() float64 {
	return model.LossPct(t.penaltyCr(), t.revenueCr())
}

func (t totals) kpis() model.KPISet {
	loss := t.lossPct()
	return model.KPISet{
		GenerationMU:    t.generationMU(),
		RevenueCr:       t.revenueCr(),
		PenaltyCr:       t.penaltyCr(),
		LossPct:         loss,
		EfficiencyScore: 100 - loss,
	}
}

// Compute reduces records into a KPISet. An empty input yields zero metrics
// with an efficiency score of 100.
func Compute(records []model.Record) (model.KPISet, error) {
	if err := model.ValidateRecords(records); err != nil {
		return model.KPISet{}, err
	}
	return sum(records).kpis(), nil
}

func sum(records []model.Record) totals {
	var t totals
	for i := range records {
		t.add(&records[i])
	}
	return t
}

// Portfolio is the headline view of a record set.
type Portfolio struct {
	KPIs       model.KPISet `json:"kpis" yaml:"kpis"`
	Records    int          `json:"records" yaml:"records"`
	Sites      int          `json:"sites" yaml:"sites"`
	States     int          `json:"states" yaml:"states"`
	FirstMonth string       `json:"first_month,omitempty" yaml:"first_month,omitempty"`
	LastMonth  string       `json:"last_month,omitempty" yaml:"last_month,omitempty"`
}

// Totals computes the KPIs together with distinct counts and the covered month range.
func Totals(records []model.Record) (Portfolio, error) {
	kpis, err := Compute(records)
	if err != nil {
		return Portfolio{}, err
	}

	p := Portfolio{KPIs: kpis, Records: len(records)}
	sites := make(map[string]struct{})
	states := make(map[string]struct{})
	for i := range records {
		r := &records[i]
		sites[r.Site] = struct{}{}
		if r.StateCode != "" {
			states[r.StateCode] = struct{}{}
		}
		key := r.MonthKey()
		if p.FirstMonth == "" || key < p.FirstMonth {
			p.FirstMonth = key
		}
		if key > p.LastMonth {
			p.LastMonth = key
		}
	}
	p.Sites = len(sites)
	p.States = len(states)
	return p, nil
}
