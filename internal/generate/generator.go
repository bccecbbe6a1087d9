// Package generate produces synthetic event streams for an experiment
// spec, useful for demos and for sizing stopping rules before real
// traffic is recorded.
package generate

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"

	"github.com/spboyer/splitlab/internal/assign"
	"github.com/spboyer/splitlab/internal/dataset"
	"github.com/spboyer/splitlab/internal/models"
	"github.com/spboyer/splitlab/internal/scoring"
)

// Options controls synthetic stream generation.
type Options struct {
	// Subjects is the number of distinct subjects to generate.
	Subjects int

	// Rates maps variant name to conversion probability in [0, 1].
	// Variants absent from the map convert at DefaultRate.
	Rates map[string]float64

	// Seed makes the stream reproducible.
	Seed int64

	// MaxEngagementEvents caps the engagement events emitted per subject
	// before a possible conversion. Zero means DefaultMaxEngagement.
	MaxEngagementEvents int
}

const (
	// DefaultRate is the conversion probability for variants without an
	// explicit rate.
	DefaultRate = 0.1

	// DefaultMaxEngagement is the per-subject engagement event cap.
	DefaultMaxEngagement = 4

	// stepMS is the simulated gap between consecutive events.
	stepMS = 250
)

var segments = []models.Segment{
	models.SegmentAnalytical,
	models.SegmentCreative,
	models.SegmentPragmatic,
	models.SegmentSocial,
}

var engagementEvents = []string{
	models.EventHeroView,
	models.EventCTAHover,
	models.EventFormFocus,
	models.EventFeatureInteraction,
	models.EventSocialProofView,
	models.EventUrgencyTriggerView,
	models.EventPricingView,
}

// Stream generates a synthetic event stream for the spec. Subjects are
// assigned with the same checksum bucketing the engine uses, so the
// per-variant rates in Options line up with the variant each subject
// will actually land in on replay.
func Stream(spec *models.ExperimentSpec, opts Options) ([]dataset.EventRecord, error) {
	if opts.Subjects <= 0 {
		return nil, fmt.Errorf("generate: subjects must be positive, got %d", opts.Subjects)
	}
	for name, rate := range opts.Rates {
		if rate < 0 || rate > 1 {
			return nil, fmt.Errorf("generate: rate for %q must be in [0, 1], got %g", name, rate)
		}
		if !containsVariant(spec.Variants, name) {
			return nil, fmt.Errorf("generate: %q is not a variant of %s", name, spec.Name)
		}
	}

	maxEngagement := opts.MaxEngagementEvents
	if maxEngagement <= 0 {
		maxEngagement = DefaultMaxEngagement
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	records := make([]dataset.EventRecord, 0, opts.Subjects*3)
	at := int64(0)

	for i := 0; i < opts.Subjects; i++ {
		subjectID := fmt.Sprintf("subject-%04d", i+1)
		variant, err := assign.Variant(subjectID, spec.Name, spec.Variants, spec.TrafficSplit)
		if err != nil {
			return nil, fmt.Errorf("generate: assigning %s: %w", subjectID, err)
		}

		var segment models.Segment
		if spec.SegmentTracking {
			segment = segments[rng.Intn(len(segments))]
		}

		// Every subject opens with an impression.
		records = append(records, dataset.EventRecord{
			SubjectID: subjectID,
			Segment:   segment,
			EventType: dataset.ImpressionEvent,
			AtMS:      at,
		})
		at += stepMS

		n := rng.Intn(maxEngagement + 1)
		for j := 0; j < n; j++ {
			eventType := pickEvent(rng, segment)
			records = append(records, dataset.EventRecord{
				SubjectID: subjectID,
				Segment:   segment,
				EventType: eventType,
				AtMS:      at,
			})
			at += stepMS
		}

		if rng.Float64() < rateFor(opts.Rates, variant) {
			records = append(records, dataset.EventRecord{
				SubjectID: subjectID,
				Segment:   segment,
				EventType: dataset.ConversionEvent,
				AtMS:      at,
			})
			at += stepMS
		}
	}

	return records, nil
}

// WriteCSV writes records in the event stream format LoadEvents reads.
func WriteCSV(w io.Writer, records []dataset.EventRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"subject_id", "segment", "event_type", "at_ms"}); err != nil {
		return fmt.Errorf("generate: writing header: %w", err)
	}
	for _, rec := range records {
		row := []string{rec.SubjectID, string(rec.Segment), rec.EventType, strconv.FormatInt(rec.AtMS, 10)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("generate: writing record for %s: %w", rec.SubjectID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SortedRates renders the effective per-variant rates for display.
func SortedRates(spec *models.ExperimentSpec, rates map[string]float64) []string {
	out := make([]string, 0, len(spec.Variants))
	for _, v := range spec.Variants {
		out = append(out, fmt.Sprintf("%s=%.0f%%", v, rateFor(rates, v)*100))
	}
	sort.Strings(out)
	return out
}

// pickEvent biases event choice toward the segment's affinity events so
// generated streams exercise the segment bonus.
func pickEvent(rng *rand.Rand, segment models.Segment) string {
	eventType := engagementEvents[rng.Intn(len(engagementEvents))]
	if segment == "" || scoring.HasAffinity(segment, eventType) {
		return eventType
	}
	// One re-roll keeps some non-affinity events in the mix.
	if rng.Intn(2) == 0 {
		return engagementEvents[rng.Intn(len(engagementEvents))]
	}
	return eventType
}

func rateFor(rates map[string]float64, variant string) float64 {
	if r, ok := rates[variant]; ok {
		return r
	}
	return DefaultRate
}

func containsVariant(variants []string, name string) bool {
	for _, v := range variants {
		if v == name {
			return true
		}
	}
	return false
}
