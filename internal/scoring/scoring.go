// Package scoring converts a subject's engagement event history into a
// bounded psychological-engagement score.
package scoring

import (
	"math"

	"github.com/spboyer/splitlab/internal/models"
)

const (
	// decayFactor is applied to the running weight after each event is
	// scored. The decay is positional, not time based: the third event is
	// always worth decayFactor² of its base, however long the gaps were.
	decayFactor = 0.95

	// segmentBonus is added flat to an event's contribution when the event
	// type matches the subject's segment affinity.
	segmentBonus = 5.0

	// defaultWeight scores event types we don't recognize.
	defaultWeight = 5.0

	// MaxScore bounds the final score.
	MaxScore = 100.0
)

// baseWeights maps event types to their base contribution.
var baseWeights = map[string]float64{
	models.EventHeroView:           10,
	models.EventCTAHover:           15,
	models.EventFormFocus:          25,
	models.EventFeatureInteraction: 20,
	models.EventSocialProofView:    12,
	models.EventUrgencyTriggerView: 18,
	models.EventPricingView:        30,
}

// affinities lists the event types each segment responds to.
var affinities = map[models.Segment]map[string]bool{
	models.SegmentAnalytical: {
		models.EventFeatureInteraction: true,
		models.EventPricingView:        true,
	},
	models.SegmentCreative: {
		models.EventHeroView:        true,
		models.EventSocialProofView: true,
	},
	models.SegmentPragmatic: {
		models.EventCTAHover:  true,
		models.EventFormFocus: true,
	},
	models.SegmentSocial: {
		models.EventSocialProofView:    true,
		models.EventUrgencyTriggerView: true,
	},
}

// BaseWeight returns the base score for an event type (defaultWeight when
// the type is unrecognized).
func BaseWeight(eventType string) float64 {
	if w, ok := baseWeights[eventType]; ok {
		return w
	}
	return defaultWeight
}

// HasAffinity reports whether the segment has an affinity for the event type.
func HasAffinity(segment models.Segment, eventType string) bool {
	return affinities[segment][eventType]
}

// Score computes the engagement score for an ordered event history.
//
// Each event contributes its base weight multiplied by a positionally
// decaying factor, plus a flat segment bonus when the type matches the
// segment's affinity. A one-time speed bonus rewards rapid bursts: with two
// or more events, max(0, 20 - spanMs/10000) is added, where spanMs is the
// milliseconds between the first and last event. The result is clamped to
// [0, MaxScore]; an empty history scores 0.
func Score(events []models.EngagementEvent, segment models.Segment) float64 {
	if len(events) == 0 {
		return 0
	}

	total := 0.0
	weight := 1.0
	for _, ev := range events {
		contribution := BaseWeight(ev.Type) * weight
		if HasAffinity(segment, ev.Type) {
			contribution += segmentBonus
		}
		total += contribution
		weight *= decayFactor
	}

	total += speedBonus(events)

	return math.Max(0, math.Min(MaxScore, total))
}

// speedBonus rewards tightly clustered engagement. Only the first and last
// timestamps matter.
func speedBonus(events []models.EngagementEvent) float64 {
	if len(events) < 2 {
		return 0
	}
	spanMs := float64(events[len(events)-1].Timestamp.Sub(events[0].Timestamp).Milliseconds())
	return math.Max(0, 20-spanMs/10000)
}
