package models

import "time"

// VariantMetrics holds the running counters and derived rates for a single
// variant. Counters are monotonically non-decreasing; rates are always
// recomputed from the counters and never stored independently of them.
type VariantMetrics struct {
	Impressions int64 `json:"impressions"`
	Engagements int64 `json:"engagements"`
	Conversions int64 `json:"conversions"`

	// ConversionRate and EngagementRate are percentages derived from the
	// counters above (0 when there are no impressions).
	ConversionRate float64 `json:"conversion_rate"`
	EngagementRate float64 `json:"engagement_rate"`

	// PsychologicalScore is the score of the most recently scored session,
	// not an aggregate across subjects.
	PsychologicalScore float64 `json:"psychological_score"`

	// AvgTimeToConversion is a two-point running blend: each new conversion
	// is averaged against the previous stored value rather than folded into
	// a true mean. Later conversions therefore carry progressively less
	// weight. This matches the observed production behavior.
	AvgTimeToConversion time.Duration `json:"avg_time_to_conversion"`

	// SegmentPerformance maps a segment to the conversion rate last observed
	// for it (last write wins). Populated only when segment tracking is on.
	SegmentPerformance map[Segment]float64 `json:"segment_performance,omitempty"`
}

// Clone returns a deep copy, so callers can hand out snapshots without
// exposing shared mutable state.
func (m VariantMetrics) Clone() VariantMetrics {
	out := m
	if m.SegmentPerformance != nil {
		out.SegmentPerformance = make(map[Segment]float64, len(m.SegmentPerformance))
		for k, v := range m.SegmentPerformance {
			out.SegmentPerformance[k] = v
		}
	}
	return out
}

// RecomputeRates refreshes the derived rate fields from the current counters.
// Called after every counter mutation.
func (m *VariantMetrics) RecomputeRates() {
	if m.Impressions == 0 {
		m.ConversionRate = 0
		m.EngagementRate = 0
		return
	}
	m.ConversionRate = float64(m.Conversions) / float64(m.Impressions) * 100
	m.EngagementRate = float64(m.Engagements) / float64(m.Impressions) * 100
}
