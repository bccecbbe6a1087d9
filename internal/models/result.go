package models

import "time"

// SignificanceResult is the outcome of a single significance check. It is
// derived on demand and never persisted as authoritative state. A zero
// Confidence with an empty Winner means "not enough data yet"; that is a
// normal state, not an error.
type SignificanceResult struct {
	// Confidence is the probability (as a percentage, clamped to [0, 99.9])
	// that the observed difference is not due to chance.
	Confidence float64 `json:"confidence"`
	Winner     string  `json:"winner,omitempty"`
}

// Decided reports whether the check produced a winner.
func (r SignificanceResult) Decided() bool {
	return r.Winner != ""
}

// CompletionReason records which stopping rule ended the experiment.
type CompletionReason string

const (
	CompletionSignificance CompletionReason = "significance_reached"
	CompletionMaxDuration  CompletionReason = "max_duration_exceeded"
	CompletionSampleCap    CompletionReason = "sample_cap_reached"
	CompletionAborted      CompletionReason = "aborted"
)

// ExperimentResult is emitted exactly once, when the experiment completes.
// It is immutable after emission: late events may still be logged, but they
// never alter an emitted result.
type ExperimentResult struct {
	Name              string                    `json:"name"`
	Duration          time.Duration             `json:"duration"`
	TotalSampleSize   int64                     `json:"total_sample_size"`
	Variants          map[string]VariantMetrics `json:"variants"`
	Winner            string                    `json:"winner,omitempty"`
	Confidence        float64                   `json:"confidence"`
	RecommendedAction string                    `json:"recommended_action"`
	Reason            CompletionReason          `json:"reason"`
	CompletedAt       time.Time                 `json:"completed_at"`
}
