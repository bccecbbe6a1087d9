package session

import "time"

// EventType identifies the kind of experiment log event.
type EventType string

const (
	EventExperimentStart    EventType = "experiment_start"
	EventVariantAssigned    EventType = "variant_assigned"
	EventEngagement         EventType = "engagement"
	EventConversion         EventType = "conversion"
	EventExperimentComplete EventType = "experiment_complete"
	EventError              EventType = "error"
)

// Event is a single timestamped entry in an experiment log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// ExperimentStartData returns event data for an experiment start.
func ExperimentStartData(name string, variants []string, minSampleSize int) map[string]any {
	return map[string]any{
		"experiment":      name,
		"variants":        variants,
		"min_sample_size": minSampleSize,
	}
}

// VariantAssignedData returns event data for a variant assignment.
func VariantAssignedData(subjectID, variant, segment string) map[string]any {
	return map[string]any{
		"subject_id": subjectID,
		"variant":    variant,
		"segment":    segment,
	}
}

// EngagementData returns event data for a tracked engagement.
func EngagementData(subjectID, variant, eventType string, score float64) map[string]any {
	return map[string]any{
		"subject_id": subjectID,
		"variant":    variant,
		"event_type": eventType,
		"score":      score,
	}
}

// ConversionData returns event data for a conversion.
func ConversionData(subjectID, variant string, elapsedMs int64) map[string]any {
	return map[string]any{
		"subject_id": subjectID,
		"variant":    variant,
		"elapsed_ms": elapsedMs,
	}
}

// ExperimentCompleteData returns event data for an experiment completion.
func ExperimentCompleteData(name, winner string, confidence float64, totalSamples int64, reason string, durationMs int64) map[string]any {
	return map[string]any{
		"experiment":    name,
		"winner":        winner,
		"confidence":    confidence,
		"total_samples": totalSamples,
		"reason":        reason,
		"duration_ms":   durationMs,
	}
}

// ErrorData returns event data for an error.
func ErrorData(message string, details map[string]any) map[string]any {
	d := map[string]any{
		"message": message,
	}
	for k, v := range details {
		d[k] = v
	}
	return d
}
