package engine

import (
	"time"

	"github.com/spboyer/splitlab/internal/models"
)

// Sink receives experiment lifecycle callbacks. Implementations must be safe
// for concurrent use; callbacks are invoked synchronously on the path that
// triggered them and should return quickly.
type Sink interface {
	// OnExperimentStart fires exactly once, when the first subject moves
	// the experiment out of the awaiting state.
	OnExperimentStart(name string, variants []string, minSampleSize int)

	// OnVariantAssigned fires when a subject enters the experiment and is
	// assigned a variant.
	OnVariantAssigned(subjectID, variant string, segment models.Segment)

	// OnEngagement fires when a tracked event moves a subject's score.
	// Late events after completion do not fire it.
	OnEngagement(subjectID, variant, eventType string, score float64)

	// OnConversion fires when a subject converts. elapsed is the time from
	// the subject's entry to the conversion.
	OnConversion(subjectID, variant string, elapsed time.Duration)

	// OnTestComplete fires exactly once, with the final immutable result.
	OnTestComplete(result models.ExperimentResult)
}

// NopSink discards all callbacks.
type NopSink struct{}

func (NopSink) OnExperimentStart(string, []string, int)          {}
func (NopSink) OnVariantAssigned(string, string, models.Segment) {}
func (NopSink) OnEngagement(string, string, string, float64)     {}
func (NopSink) OnConversion(string, string, time.Duration)       {}
func (NopSink) OnTestComplete(models.ExperimentResult)           {}

// MultiSink fans callbacks out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) OnExperimentStart(name string, variants []string, minSampleSize int) {
	for _, s := range m {
		s.OnExperimentStart(name, variants, minSampleSize)
	}
}

func (m MultiSink) OnEngagement(subjectID, variant, eventType string, score float64) {
	for _, s := range m {
		s.OnEngagement(subjectID, variant, eventType, score)
	}
}

func (m MultiSink) OnVariantAssigned(subjectID, variant string, segment models.Segment) {
	for _, s := range m {
		s.OnVariantAssigned(subjectID, variant, segment)
	}
}

func (m MultiSink) OnConversion(subjectID, variant string, elapsed time.Duration) {
	for _, s := range m {
		s.OnConversion(subjectID, variant, elapsed)
	}
}

func (m MultiSink) OnTestComplete(result models.ExperimentResult) {
	for _, s := range m {
		s.OnTestComplete(result)
	}
}
