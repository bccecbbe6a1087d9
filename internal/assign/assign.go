// Package assign maps subjects to experiment variants deterministically.
// Assignment is a pure function of (subject, experiment) so re-deriving an
// assignment always yields the same variant without any stored state.
package assign

import (
	"github.com/spboyer/splitlab/internal/models"
)

// Checksum returns a stable checksum of s: the sum of its UTF-8 byte values.
// It is deterministic across processes and approximately uniform mod 100 for
// realistic identifier distributions.
func Checksum(s string) int {
	sum := 0
	for _, b := range []byte(s) {
		sum += int(b)
	}
	return sum
}

// Bucket reduces a subject/experiment pair to a value in [0, 1).
func Bucket(subjectID, experiment string) float64 {
	return float64(Checksum(subjectID+experiment)%100) / 100.0
}

// Variant assigns subjectID to one of variants for the named experiment.
//
// With exactly two variants, trafficSplit is the fraction routed to
// variants[1]. With more than two, the bucket indexes the list directly and
// trafficSplit is ignored.
func Variant(subjectID, experiment string, variants []string, trafficSplit float64) (string, error) {
	if len(variants) == 0 {
		return "", models.ErrNoVariants
	}

	h := Bucket(subjectID, experiment)

	if len(variants) == 2 {
		if h < trafficSplit {
			return variants[1], nil
		}
		return variants[0], nil
	}

	return variants[int(h*float64(len(variants)))], nil
}
