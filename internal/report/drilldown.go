package report

import (
	"sort"
	"time"

	"github.com/Veraticus/dsm-insight/internal/model"
)

// TopSiteLimit bounds the penalty ranking of a state drill-down.
const TopSiteLimit = 5

// SitePenalty is one entry of a penalty ranking.
type SitePenalty struct {
	Site      string  `json:"site" yaml:"site"`
	PenaltyCr float64 `json:"penalty_cr" yaml:"penalty_cr"`
}

// TechnologyGeneration is one entry of a technology breakdown.
type TechnologyGeneration struct {
	Technology   string  `json:"technology" yaml:"technology"`
	GenerationMU float64 `json:"generation_mu" yaml:"generation_mu"`
}

// StateDrillDown is the focused report for one state.
type StateDrillDown struct {
	StateCode           string                 `json:"state_code" yaml:"state_code"`
	Label               string                 `json:"label,omitempty" yaml:"label,omitempty"`
	KPIs                model.KPISet           `json:"kpis" yaml:"kpis"`
	Records             int                    `json:"records" yaml:"records"`
	TopSitesByPenalty   []SitePenalty          `json:"top_sites_by_penalty" yaml:"top_sites_by_penalty"`
	TechnologyBreakdown []TechnologyGeneration `json:"technology_breakdown" yaml:"technology_breakdown"`
}

// DrillDownByState filters records by spec and additionally by stateCode,
// then reports KPIs, the top sites by penalty and generation per technology.
// The technology breakdown keeps first-seen order.
func DrillDownByState(records []model.Record, spec model.FilterSpec, stateCode string) (StateDrillDown, error) {
	scoped, err := Apply(records, spec)
	if err != nil {
		return StateDrillDown{}, err
	}
	scoped, err = Apply(scoped, model.FilterSpec{string(model.DimensionState): {stateCode}})
	if err != nil {
		return StateDrillDown{}, err
	}

	kpis, err := Compute(scoped)
	if err != nil {
		return StateDrillDown{}, err
	}

	out := StateDrillDown{
		StateCode:           stateCode,
		KPIs:                kpis,
		Records:             len(scoped),
		TopSitesByPenalty:   []SitePenalty{},
		TechnologyBreakdown: []TechnologyGeneration{},
	}
	for i := range scoped {
		if scoped[i].StateName != "" {
			out.Label = scoped[i].StateName
			break
		}
	}

	sites, err := groupBy(scoped, model.GroupSite)
	if err != nil {
		return StateDrillDown{}, err
	}
	siteSummaries := make([]model.GroupSummary, 0, len(sites))
	for _, g := range sites {
		siteSummaries = append(siteSummaries, g.summary(model.GroupSite))
	}
	for _, s := range TopN(siteSummaries, model.MetricPenalty, TopSiteLimit) {
		out.TopSitesByPenalty = append(out.TopSitesByPenalty, SitePenalty{Site: s.Key, PenaltyCr: s.PenaltyCr})
	}

	techs, err := groupBy(scoped, model.GroupTechnology)
	if err != nil {
		return StateDrillDown{}, err
	}
	for _, g := range techs {
		out.TechnologyBreakdown = append(out.TechnologyBreakdown, TechnologyGeneration{
			Technology:   g.key,
			GenerationMU: g.generationMU(),
		})
	}
	return out, nil
}

// SeriesPoint is one month of a site's comparison series.
type SeriesPoint struct {
	Month     time.Time `json:"month" yaml:"month"`
	Label     string    `json:"label" yaml:"label"`
	LossPct   float64   `json:"loss_pct" yaml:"loss_pct"`
	RevenueCr float64   `json:"revenue_cr" yaml:"revenue_cr"`
	PenaltyCr float64   `json:"penalty_cr" yaml:"penalty_cr"`
}

// SiteComparison carries everything rendered for one compared site.
type SiteComparison struct {
	Site    string             `json:"site" yaml:"site"`
	Summary model.GroupSummary `json:"summary" yaml:"summary"`
	Series  []SeriesPoint      `json:"series" yaml:"series"`
	Radar   RadarScore         `json:"radar" yaml:"radar"`
}

// Comparison is the multi-site drill-down. Sites follow selection order.
type Comparison struct {
	KPIs  model.KPISet     `json:"kpis" yaml:"kpis"`
	Sites []SiteComparison `json:"sites" yaml:"sites"`
}

// DrillDownByComparisonSites filters records by spec and to the given sites,
// returning per-site monthly series of loss and revenue. A site without data
// is kept with an empty series and a NoData summary. No thresholds are applied.
func DrillDownByComparisonSites(records []model.Record, spec model.FilterSpec, sites []string) (Comparison, error) {
	scoped, err := Apply(records, spec)
	if err != nil {
		return Comparison{}, err
	}
	sites = uniqueOrdered(sites)
	scoped, err = Apply(scoped, model.FilterSpec{string(model.DimensionSite): sites})
	if err != nil {
		return Comparison{}, err
	}
	if len(sites) == 0 {
		scoped = scoped[:0]
	}

	kpis, err := Compute(scoped)
	if err != nil {
		return Comparison{}, err
	}

	grouped, err := groupBy(scoped, model.GroupSite)
	if err != nil {
		return Comparison{}, err
	}
	bySite := make(map[string]*group, len(grouped))
	for _, g := range grouped {
		bySite[g.key] = g
	}

	out := Comparison{KPIs: kpis, Sites: make([]SiteComparison, 0, len(sites))}
	summaries := make([]model.GroupSummary, 0, len(sites))
	for _, site := range sites {
		sc := SiteComparison{Site: site, Series: []SeriesPoint{}}
		if g, ok := bySite[site]; ok {
			sc.Summary = g.summary(model.GroupSite)
			sc.Series = monthlySeries(scoped, site)
		} else {
			sc.Summary = model.GroupSummary{Key: site, Label: site, NoData: true}
		}
		summaries = append(summaries, sc.Summary)
		out.Sites = append(out.Sites, sc)
	}

	scores := Radar(summaries)
	for i := range out.Sites {
		out.Sites[i].Radar = scores[i]
	}
	return out, nil
}

func monthlySeries(records []model.Record, site string) []SeriesPoint {
	index := make(map[time.Time]*totals)
	var months []time.Time
	for i := range records {
		r := &records[i]
		if r.Site != site {
			continue
		}
		m := model.StartOfMonth(r.Month)
		t, ok := index[m]
		if !ok {
			t = &totals{}
			index[m] = t
			months = append(months, m)
		}
		t.add(r)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	series := make([]SeriesPoint, 0, len(months))
	for _, m := range months {
		t := index[m]
		series = append(series, SeriesPoint{
			Month:     m,
			Label:     model.MonthKey(m),
			LossPct:   t.lossPct(),
			RevenueCr: t.revenueCr(),
			PenaltyCr: t.penaltyCr(),
		})
	}
	return series
}

func uniqueOrdered(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// View is the complete recomputation for one selection snapshot.
type View struct {
	Selection  model.Selection      `json:"selection" yaml:"selection"`
	Portfolio  Portfolio            `json:"portfolio" yaml:"portfolio"`
	States     []model.GroupSummary `json:"states" yaml:"states"`
	State      *StateDrillDown      `json:"state,omitempty" yaml:"state,omitempty"`
	Comparison *Comparison          `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

// Compose runs a full pass for sel: portfolio totals and state summaries over
// the filtered records, plus the state drill-down and site comparison for
// whichever selection axes are active.
func Compose(records []model.Record, spec model.FilterSpec, sel model.Selection, threshold float64) (View, error) {
	filtered, err := Apply(records, spec)
	if err != nil {
		return View{}, err
	}

	view := View{Selection: sel}
	if view.Portfolio, err = Totals(filtered); err != nil {
		return View{}, err
	}
	if view.States, err = Summarize(filtered, model.GroupState, threshold); err != nil {
		return View{}, err
	}

	if sel.HasState() {
		state, err := DrillDownByState(records, spec, sel.State)
		if err != nil {
			return View{}, err
		}
		view.State = &state
	}
	if sel.HasSites() {
		cmp, err := DrillDownByComparisonSites(records, spec, sel.Sites)
		if err != nil {
			return View{}, err
		}
		view.Comparison = &cmp
	}
	return view, nil
}
