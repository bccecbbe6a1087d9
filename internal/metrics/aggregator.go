// Package metrics maintains the per-variant counters and derived rates of a
// running experiment over a swappable Store.
package metrics

import (
	"time"

	"github.com/spboyer/splitlab/internal/models"
)

// Aggregator applies experiment events to a Store. Records are created
// lazily on first touch; unknown variants never produce an error.
type Aggregator struct {
	store           Store
	segmentTracking bool
}

// NewAggregator creates an aggregator over store. When segmentTracking is
// enabled, conversions also update the per-segment performance map.
func NewAggregator(store Store, segmentTracking bool) *Aggregator {
	return &Aggregator{store: store, segmentTracking: segmentTracking}
}

// Store returns the underlying store.
func (a *Aggregator) Store() Store {
	return a.store
}

// RecordImpression counts one exposure of the variant.
func (a *Aggregator) RecordImpression(variant string) {
	a.store.Update(variant, func(m *models.VariantMetrics) {
		m.Impressions++
		m.RecomputeRates()
	})
}

// RecordEngagement counts one engagement and overwrites the psychological
// score. The caller rescores the subject's full event history on every
// engagement, so the overwrite is idempotent-by-recomputation rather than a
// running sum.
func (a *Aggregator) RecordEngagement(variant string, score float64) {
	a.store.Update(variant, func(m *models.VariantMetrics) {
		m.Engagements++
		m.PsychologicalScore = score
		m.RecomputeRates()
	})
}

// RecordConversion counts one conversion for the variant.
//
// The average time to conversion is a two-point running blend: the first
// conversion sets it, every later one averages against the previous stored
// value. This is not a true mean; see VariantMetrics.
func (a *Aggregator) RecordConversion(variant string, elapsed time.Duration, segment models.Segment) {
	a.store.Update(variant, func(m *models.VariantMetrics) {
		m.Conversions++
		if m.Conversions == 1 {
			m.AvgTimeToConversion = elapsed
		} else {
			m.AvgTimeToConversion = (m.AvgTimeToConversion + elapsed) / 2
		}
		m.RecomputeRates()

		if a.segmentTracking {
			if m.SegmentPerformance == nil {
				m.SegmentPerformance = make(map[models.Segment]float64)
			}
			m.SegmentPerformance[segment] = m.ConversionRate
		}
	})
}

// Get returns a snapshot of the variant's metrics, creating nothing.
func (a *Aggregator) Get(variant string) models.VariantMetrics {
	return a.store.Get(variant)
}

// TotalSampleSize sums impressions across every variant.
func (a *Aggregator) TotalSampleSize() int64 {
	var total int64
	for _, m := range a.store.Snapshot() {
		total += m.Impressions
	}
	return total
}
