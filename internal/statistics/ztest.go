// Package statistics decides experiment outcomes with a two-proportion
// z-test over the first two variants' conversion counters.
package statistics

import (
	"math"

	"github.com/spboyer/splitlab/internal/models"
)

// MaxConfidence caps the reported confidence percentage. The normal CDF
// saturates to 100 for large z, which would overstate certainty.
const MaxConfidence = 99.9

// Evaluate runs a two-proportion z-test over the first two entries of
// variants (in order) and returns the resulting confidence and winner.
//
// Fewer than two variants, or either of the first two below minSampleSize
// impressions, yields {0, ""}, the normal "keep collecting" state, never an
// error. The winner is the variant with the strictly higher conversion rate;
// on a tie the first variant by order wins, so the choice is deterministic.
func Evaluate(variants []string, byVariant map[string]models.VariantMetrics, minSampleSize int) models.SignificanceResult {
	if len(variants) < 2 {
		return models.SignificanceResult{}
	}

	a := byVariant[variants[0]]
	b := byVariant[variants[1]]

	if a.Impressions < int64(minSampleSize) || b.Impressions < int64(minSampleSize) {
		return models.SignificanceResult{}
	}

	p1 := float64(a.Conversions) / float64(a.Impressions)
	p2 := float64(b.Conversions) / float64(b.Impressions)
	pooled := float64(a.Conversions+b.Conversions) / float64(a.Impressions+b.Impressions)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(a.Impressions) + 1/float64(b.Impressions)))

	z := 0.0
	if se > 0 {
		z = math.Abs(p1-p2) / se
	}

	winner := variants[0]
	if b.ConversionRate > a.ConversionRate {
		winner = variants[1]
	}

	return models.SignificanceResult{
		Confidence: ConfidenceFromZ(z),
		Winner:     winner,
	}
}

// ConfidenceFromZ converts a z statistic to a two-tailed confidence
// percentage via the standard normal CDF, clamped to [0, MaxConfidence].
// math.Erf is numerically stable for any finite z.
func ConfidenceFromZ(z float64) float64 {
	conf := math.Erf(math.Abs(z)/math.Sqrt2) * 100
	return math.Max(0, math.Min(MaxConfidence, conf))
}
