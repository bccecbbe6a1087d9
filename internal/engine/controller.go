// Package engine runs a single experiment end to end: it assigns subjects to
// variants, tracks their engagement and conversions, and decides when the
// experiment is over.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spboyer/splitlab/internal/assign"
	"github.com/spboyer/splitlab/internal/content"
	"github.com/spboyer/splitlab/internal/identity"
	"github.com/spboyer/splitlab/internal/metrics"
	"github.com/spboyer/splitlab/internal/models"
	"github.com/spboyer/splitlab/internal/scoring"
	"github.com/spboyer/splitlab/internal/statistics"
)

// State is the lifecycle phase of an experiment.
type State string

const (
	// StateAwaitingAssignment means no subject has entered yet.
	StateAwaitingAssignment State = "AWAITING_ASSIGNMENT"
	// StateActive means at least one subject has been assigned.
	StateActive State = "ACTIVE"
	// StateCompleted is terminal. Late events are logged but never change
	// the emitted result.
	StateCompleted State = "COMPLETED"
)

// confidenceThreshold is the significance level (in percent) at which the
// experiment may stop early.
const confidenceThreshold = 95.0

// sampleCapMultiplier bounds the experiment at minSampleSize times this
// factor, so an inconclusive test cannot run forever.
const sampleCapMultiplier = 10

// Controller owns the full lifecycle of one experiment.
type Controller struct {
	spec    *models.ExperimentSpec
	library *content.Library

	store    metrics.Store
	agg      *metrics.Aggregator
	resolver identity.Resolver
	sink     Sink
	now      func() time.Time

	mu        sync.Mutex
	state     State
	startedAt time.Time
	sessions  map[string]*SubjectSession
	result    *models.ExperimentResult
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore swaps the metrics backend. The default is an in-memory store.
func WithStore(store metrics.Store) Option {
	return func(c *Controller) { c.store = store }
}

// WithResolver sets the subject context resolver. The default assigns every
// subject the default segment.
func WithResolver(r identity.Resolver) Option {
	return func(c *Controller) { c.resolver = r }
}

// WithSink attaches a lifecycle callback sink. Multiple calls accumulate.
func WithSink(s Sink) Option {
	return func(c *Controller) {
		if existing, ok := c.sink.(MultiSink); ok {
			c.sink = append(existing, s)
			return
		}
		if _, ok := c.sink.(NopSink); ok {
			c.sink = s
			return
		}
		c.sink = MultiSink{c.sink, s}
	}
}

// WithClock overrides the time source, which lets simulations replay
// recorded timelines deterministically.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a Controller for spec. The spec is validated; configuration
// problems are fatal here, never deferred to event time.
func New(spec *models.ExperimentSpec, opts ...Option) (*Controller, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment definition: %w", err)
	}

	c := &Controller{
		spec:     spec,
		library:  content.NewLibrary(spec.Content),
		resolver: identity.Default(),
		sink:     NopSink{},
		now:      time.Now,
		state:    StateAwaitingAssignment,
		sessions: make(map[string]*SubjectSession),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = metrics.NewMemoryStore()
	}
	c.agg = metrics.NewAggregator(c.store, spec.SegmentTracking)
	return c, nil
}

// Spec returns the immutable experiment definition.
func (c *Controller) Spec() *models.ExperimentSpec {
	return c.spec
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EnterExperiment registers a subject, assigns their variant, and records an
// impression. Re-entry by a known subject returns the already assigned
// variant without a second impression. Assignment is deterministic: the same
// subject always lands on the same variant.
func (c *Controller) EnterExperiment(subjectID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.sessions[subjectID]; ok {
		return sess.Variant, nil
	}
	if c.state == StateCompleted {
		slog.Debug("late entry ignored", "subject", subjectID, "experiment", c.spec.Name)
		return "", ErrCompleted
	}

	ctx, err := c.resolver.Resolve(subjectID)
	if err != nil {
		return "", fmt.Errorf("resolving subject %q: %w", subjectID, err)
	}

	variant, err := assign.Variant(subjectID, c.spec.Name, c.spec.Variants, c.spec.TrafficSplit)
	if err != nil {
		return "", err
	}

	entered := c.now()
	if c.state == StateAwaitingAssignment {
		c.state = StateActive
		c.startedAt = entered
		c.sink.OnExperimentStart(c.spec.Name, c.spec.Variants, c.spec.MinSampleSize)
	}

	c.sessions[subjectID] = &SubjectSession{
		SubjectID: subjectID,
		Variant:   variant,
		Segment:   ctx.Segment,
		EnteredAt: entered,
	}
	c.agg.RecordImpression(variant)
	c.sink.OnVariantAssigned(subjectID, variant, ctx.Segment)

	c.checkCompletion()
	return variant, nil
}

// TrackEngagement appends an event to the subject's history, rescores the
// full history, and records the engagement. It returns the session's current
// score. After completion the event is still appended to the session but no
// counters move.
func (c *Controller) TrackEngagement(subjectID, eventType string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[subjectID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSubject, subjectID)
	}

	sess.appendEvent(eventType, c.now())

	var score float64
	if c.spec.ScoringEnabled {
		score = scoring.Score(sess.Events, sess.Segment)
	}

	if c.state == StateCompleted {
		slog.Debug("late engagement ignored", "subject", subjectID, "event", eventType)
		return score, nil
	}

	c.agg.RecordEngagement(sess.Variant, score)
	c.sink.OnEngagement(subjectID, sess.Variant, eventType, score)
	c.checkCompletion()
	return score, nil
}

// TrackConversion records a conversion for the subject, measured from their
// entry time. A second conversion by the same subject is a no-op.
func (c *Controller) TrackConversion(subjectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[subjectID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSubject, subjectID)
	}
	if sess.Converted {
		return nil
	}

	now := c.now()
	if c.state == StateCompleted {
		slog.Debug("late conversion ignored", "subject", subjectID)
		return nil
	}

	sess.Converted = true
	elapsed := now.Sub(sess.EnteredAt)
	c.agg.RecordConversion(sess.Variant, elapsed, sess.Segment)
	c.sink.OnConversion(subjectID, sess.Variant, elapsed)

	c.checkCompletion()
	return nil
}

// ContentFor returns the content of the given kind for the subject's
// assigned variant.
func (c *Controller) ContentFor(subjectID string, kind content.Kind) (string, error) {
	c.mu.Lock()
	sess, ok := c.sessions[subjectID]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSubject, subjectID)
	}
	return c.library.Get(sess.Variant, kind), nil
}

// BundleFor returns the full content bundle for the subject's assigned
// variant.
func (c *Controller) BundleFor(subjectID string) (content.Bundle, error) {
	c.mu.Lock()
	sess, ok := c.sessions[subjectID]
	c.mu.Unlock()
	if !ok {
		return content.Bundle{}, fmt.Errorf("%w: %q", ErrUnknownSubject, subjectID)
	}
	return c.library.Bundle(sess.Variant), nil
}

// Metrics returns a snapshot of one variant's metrics.
func (c *Controller) Metrics(variant string) models.VariantMetrics {
	return c.agg.Get(variant)
}

// Snapshot returns a consistent copy of all variant metrics.
func (c *Controller) Snapshot() map[string]models.VariantMetrics {
	return c.store.Snapshot()
}

// Significance evaluates statistical significance over a consistent snapshot
// of the current counters. Insufficient data yields a zero-confidence result
// with no winner.
func (c *Controller) Significance() models.SignificanceResult {
	return statistics.Evaluate(c.spec.Variants, c.store.Snapshot(), c.spec.MinSampleSize)
}

// Result returns the final result and true once the experiment completed.
func (c *Controller) Result() (models.ExperimentResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return models.ExperimentResult{}, false
	}
	return *c.result, true
}

// Abort forces the experiment into the completed state with zero confidence
// and no winner. Aborting a completed experiment returns the existing
// result.
func (c *Controller) Abort() models.ExperimentResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCompleted {
		return *c.result
	}
	c.complete(models.CompletionAborted, models.SignificanceResult{})
	return *c.result
}

// CheckCompletion applies the stopping rules against the current clock.
// It exists so a caller can sweep time-based completion without pushing an
// event through the engine.
func (c *Controller) CheckCompletion() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkCompletion()
	return c.state == StateCompleted
}

// checkCompletion applies the three stopping rules in order. Callers hold mu.
func (c *Controller) checkCompletion() {
	if c.state != StateActive {
		return
	}

	total := c.agg.TotalSampleSize()
	sig := statistics.Evaluate(c.spec.Variants, c.store.Snapshot(), c.spec.MinSampleSize)

	switch {
	case sig.Confidence > confidenceThreshold && total > int64(c.spec.MinSampleSize):
		c.complete(models.CompletionSignificance, sig)
	case c.now().Sub(c.startedAt) > c.spec.MaxDuration():
		c.complete(models.CompletionMaxDuration, sig)
	case total > int64(c.spec.MinSampleSize)*sampleCapMultiplier:
		c.complete(models.CompletionSampleCap, sig)
	}
}

// complete transitions to the terminal state and emits the result exactly
// once. Callers hold mu.
func (c *Controller) complete(reason models.CompletionReason, sig models.SignificanceResult) {
	now := c.now()
	total := c.agg.TotalSampleSize()

	var duration time.Duration
	if !c.startedAt.IsZero() {
		duration = now.Sub(c.startedAt)
	}

	c.state = StateCompleted
	c.result = &models.ExperimentResult{
		Name:              c.spec.Name,
		Duration:          duration,
		TotalSampleSize:   total,
		Variants:          c.store.Snapshot(),
		Winner:            sig.Winner,
		Confidence:        sig.Confidence,
		RecommendedAction: c.recommendedAction(sig, total),
		Reason:            reason,
		CompletedAt:       now,
	}

	slog.Info("experiment completed",
		"experiment", c.spec.Name,
		"reason", string(reason),
		"winner", sig.Winner,
		"confidence", sig.Confidence,
		"samples", total,
	)
	c.sink.OnTestComplete(*c.result)
}

func (c *Controller) recommendedAction(sig models.SignificanceResult, total int64) string {
	if sig.Confidence > confidenceThreshold && sig.Decided() {
		return fmt.Sprintf("implement %s", sig.Winner)
	}
	remaining := int64(c.spec.MinSampleSize) - total
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("continue testing, need %d more samples", remaining)
}
