package report

import (
	"sort"
	"time"

	"github.com/Veraticus/dsm-insight/internal/model"
)

type bucket struct {
	period time.Time
	totals
}

// Trend buckets records by month or fiscal quarter in chronological order.
// Each point is coloured against lineBoundary.
func Trend(records []model.Record, freq model.Frequency, lineBoundary float64) ([]model.TrendPoint, error) {
	if err := model.ValidateRecords(records); err != nil {
		return nil, err
	}
	if _, err := model.ParseFrequency(string(freq)); err != nil {
		return nil, err
	}

	buckets := bucketize(records, freq)
	points := make([]model.TrendPoint, 0, len(buckets))
	for _, b := range buckets {
		loss := b.lossPct()
		points = append(points, model.TrendPoint{
			Period:       b.period,
			Label:        periodLabel(b.period, freq),
			GenerationMU: b.generationMU(),
			RevenueCr:    b.revenueCr(),
			PenaltyCr:    b.penaltyCr(),
			LossPct:      loss,
			Line:         model.ClassifyLine(loss, lineBoundary),
		})
	}
	return points, nil
}

func bucketize(records []model.Record, freq model.Frequency) []*bucket {
	index := make(map[time.Time]*bucket)
	var out []*bucket
	for i := range records {
		r := &records[i]
		period := model.StartOfMonth(r.Month)
		if freq == model.FrequencyQuarter {
			period = model.QuarterStart(period)
		}
		b, ok := index[period]
		if !ok {
			b = &bucket{period: period}
			index[period] = b
			out = append(out, b)
		}
		b.add(r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].period.Before(out[j].period) })
	return out
}

func periodLabel(period time.Time, freq model.Frequency) string {
	if freq == model.FrequencyQuarter {
		return model.FiscalYearOf(period) + " " + model.FiscalQuarterOf(period)
	}
	return model.MonthKey(period)
}
