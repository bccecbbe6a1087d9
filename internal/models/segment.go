package models

import (
	"fmt"
	"strings"
)

// Segment classifies a subject's decision-making style. It is a small closed
// tag set: anything outside the four known values is rejected at parse time
// rather than silently defaulted.
type Segment string

const (
	SegmentAnalytical Segment = "analytical"
	SegmentCreative   Segment = "creative"
	SegmentPragmatic  Segment = "pragmatic"
	SegmentSocial     Segment = "social"
)

// DefaultSegment is used when a subject has no segment tag.
const DefaultSegment = SegmentPragmatic

func (s Segment) String() string {
	return string(s)
}

// Valid reports whether s is one of the known segments.
func (s Segment) Valid() bool {
	switch s {
	case SegmentAnalytical, SegmentCreative, SegmentPragmatic, SegmentSocial:
		return true
	}
	return false
}

// ParseSegment converts a string to a Segment. Empty input yields
// DefaultSegment; anything else unknown is an error.
func ParseSegment(s string) (Segment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultSegment, nil
	case "analytical":
		return SegmentAnalytical, nil
	case "creative":
		return SegmentCreative, nil
	case "pragmatic":
		return SegmentPragmatic, nil
	case "social":
		return SegmentSocial, nil
	default:
		return DefaultSegment, fmt.Errorf("invalid segment %q: must be analytical, creative, pragmatic, or social", s)
	}
}
