package report

import (
	"sort"

	"github.com/Veraticus/dsm-insight/internal/common"
	"github.com/Veraticus/dsm-insight/internal/model"
)

type group struct {
	key   string
	label string
	sites map[string]struct{}
	totals
}

// groupBy partitions records by the attribute behind key, keeping first-seen order.
func groupBy(records []model.Record, key model.GroupKey) ([]*group, error) {
	dim := key.Dimension()
	if dim == "" {
		return nil, &common.InvalidDimensionError{Dimension: string(key)}
	}

	index := make(map[string]*group)
	var order []*group
	for i := range records {
		r := &records[i]
		k, _ := dim.Value(r)
		g, ok := index[k]
		if !ok {
			g = &group{key: k, sites: make(map[string]struct{})}
			index[k] = g
			order = append(order, g)
		}
		if g.label == "" && key == model.GroupState {
			g.label = r.StateName
		}
		g.sites[r.Site] = struct{}{}
		g.add(r)
	}
	return order, nil
}

func (g *group) summary(key model.GroupKey) model.GroupSummary {
	s := model.GroupSummary{
		Key:          g.key,
		Label:        g.label,
		GenerationMU: g.generationMU(),
		RevenueCr:    g.revenueCr(),
		PenaltyCr:    g.penaltyCr(),
		LossPct:      g.lossPct(),
		Records:      g.records,
		Sites:        len(g.sites),
	}
	if s.Label == "" {
		s.Label = g.key
	}
	if key == model.GroupState {
		s.StateCode = g.key
	}
	return s
}

// Summarize groups records by key and classifies each group against
// threshold. Groups appear in the order their key is first seen.
func Summarize(records []model.Record, key model.GroupKey, threshold float64) ([]model.GroupSummary, error) {
	if err := model.ValidateRecords(records); err != nil {
		return nil, err
	}
	groups, err := groupBy(records, key)
	if err != nil {
		return nil, err
	}

	out := make([]model.GroupSummary, 0, len(groups))
	for _, g := range groups {
		s := g.summary(key)
		s.RiskLevel = model.ClassifyRisk(s.LossPct, threshold)
		out = append(out, s)
	}
	return out, nil
}

// TopN returns the n summaries with the largest metric value. Ties are broken
// by key in lexical order. The input is not reordered.
func TopN(summaries []model.GroupSummary, metric model.Metric, n int) []model.GroupSummary {
	if n <= 0 {
		return []model.GroupSummary{}
	}

	ranked := make([]model.GroupSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := ranked[i].MetricValue(metric), ranked[j].MetricValue(metric)
		if vi != vj {
			return vi > vj
		}
		return ranked[i].Key < ranked[j].Key
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Complete appends a zero row flagged NoData for every key in master that has
// no summary, in master order. Existing rows keep their position.
func Complete(summaries []model.GroupSummary, master []string, threshold float64) []model.GroupSummary {
	present := make(map[string]struct{}, len(summaries))
	out := make([]model.GroupSummary, 0, len(summaries)+len(master))
	for _, s := range summaries {
		present[s.Key] = struct{}{}
		out = append(out, s)
	}
	for _, key := range master {
		if _, ok := present[key]; ok {
			continue
		}
		present[key] = struct{}{}
		out = append(out, model.GroupSummary{
			Key:       key,
			Label:     key,
			RiskLevel: model.ClassifyRisk(0, threshold),
			NoData:    true,
		})
	}
	return out
}

// CountRisk returns how many summaries are high-risk and low-risk. NoData
// rows are not counted.
func CountRisk(summaries []model.GroupSummary) (high, low int) {
	for _, s := range summaries {
		if s.NoData {
			continue
		}
		if s.RiskLevel == model.RiskHigh {
			high++
		} else {
			low++
		}
	}
	return high, low
}
