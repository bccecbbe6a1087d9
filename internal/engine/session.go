package engine

import (
	"time"

	"github.com/spboyer/splitlab/internal/models"
)

// SubjectSession tracks one subject's journey through the experiment. A
// session is owned by its subject: the engine serializes access to it, and
// its event history is append-only.
type SubjectSession struct {
	SubjectID string
	Variant   string
	Segment   models.Segment
	EnteredAt time.Time
	Events    []models.EngagementEvent
	Converted bool
}

func (s *SubjectSession) appendEvent(eventType string, at time.Time) {
	s.Events = append(s.Events, models.EngagementEvent{
		Type:      eventType,
		Timestamp: at,
	})
}
