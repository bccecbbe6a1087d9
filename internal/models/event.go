package models

import "time"

// Well-known engagement event types. Unrecognized types are still accepted
// and scored with a default weight.
const (
	EventHeroView           = "hero_view"
	EventCTAHover           = "cta_hover"
	EventFormFocus          = "form_focus"
	EventFeatureInteraction = "feature_interaction"
	EventSocialProofView    = "social_proof_view"
	EventUrgencyTriggerView = "urgency_trigger_view"
	EventPricingView        = "pricing_view"
)

// EngagementEvent is a single typed interaction signal from a subject.
// Events are append-only: once recorded they are never mutated or removed.
type EngagementEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
