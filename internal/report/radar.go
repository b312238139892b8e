package report

import (
	"math"

	"github.com/Veraticus/dsm-insight/internal/model"
)

// radarSmoothing keeps the loss score finite when every site has the same loss.
const radarSmoothing = 0.01

// RadarScore rates a site relative to the others in a comparison on a 0-100 scale.
type RadarScore struct {
	Generation float64 `json:"generation" yaml:"generation"`
	Revenue    float64 `json:"revenue" yaml:"revenue"`
	LowLoss    float64 `json:"low_loss" yaml:"low_loss"`
	Overall    float64 `json:"overall" yaml:"overall"`
}

// Radar scores each summary against the group. Generation and revenue are
// normalised to the group maximum; lower loss scores higher. Summaries
// without data score zero and do not move the group bounds. The result is
// index-aligned with summaries.
func Radar(summaries []model.GroupSummary) []RadarScore {
	scores := make([]RadarScore, len(summaries))

	maxGen, maxRev := 0.0, 0.0
	minLoss, maxLoss := math.Inf(1), math.Inf(-1)
	for _, s := range summaries {
		if s.NoData {
			continue
		}
		maxGen = math.Max(maxGen, s.GenerationMU)
		maxRev = math.Max(maxRev, s.RevenueCr)
		minLoss = math.Min(minLoss, s.LossPct)
		maxLoss = math.Max(maxLoss, s.LossPct)
	}

	for i, s := range summaries {
		if s.NoData {
			continue
		}
		var score RadarScore
		if maxGen > 0 {
			score.Generation = s.GenerationMU / maxGen * 100
		}
		if maxRev > 0 {
			score.Revenue = s.RevenueCr / maxRev * 100
		}
		score.LowLoss = 100 - (s.LossPct-minLoss)/(maxLoss-minLoss+radarSmoothing)*100
		score.Overall = (score.Generation + score.Revenue + score.LowLoss) / 3
		scores[i] = score
	}
	return scores
}
