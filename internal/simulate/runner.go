// Package simulate replays recorded subject event streams through an
// experiment, either in recorded order on a virtual clock or concurrently in
// real time. It is how an experiment definition gets exercised offline
// before anything ships.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spboyer/splitlab/internal/config"
	"github.com/spboyer/splitlab/internal/dataset"
	"github.com/spboyer/splitlab/internal/engine"
	"github.com/spboyer/splitlab/internal/identity"
	"github.com/spboyer/splitlab/internal/models"
	"github.com/spboyer/splitlab/internal/session"
)

// Runner replays an event stream through an experiment controller.
type Runner struct {
	cfg *config.RunConfig

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event.
type EventType string

const (
	EventReplayStart      EventType = "replay_start"
	EventReplayComplete   EventType = "replay_complete"
	EventReplayStopped    EventType = "replay_stopped"
	EventSubjectEntered   EventType = "subject_entered"
	EventSubjectConverted EventType = "subject_converted"
)

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	EventType     EventType
	SubjectID     string
	Variant       string
	SubjectNum    int
	TotalSubjects int
	Details       map[string]any
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// NewRunner creates a replay runner for cfg.
func NewRunner(cfg *config.RunConfig, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:       cfg,
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnProgress registers a progress listener.
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// virtualClock is a settable time source driven by recorded event offsets.
type virtualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newVirtualClock(start time.Time) *virtualClock {
	return &virtualClock{now: start}
}

func (v *virtualClock) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *virtualClock) Set(t time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.now = t
}

// Run replays the configured event stream and returns the experiment's final
// result. A stream that exhausts without triggering a stopping rule is
// aborted, which yields an inconclusive terminal result rather than an
// error.
func (r *Runner) Run(ctx context.Context) (models.ExperimentResult, error) {
	spec := r.cfg.Spec()

	records, err := dataset.LoadEvents(r.cfg.EventsPath())
	if err != nil {
		return models.ExperimentResult{}, fmt.Errorf("loading event stream: %w", err)
	}
	if len(records) == 0 {
		return models.ExperimentResult{}, errors.New("event stream has no records")
	}

	opts := []engine.Option{
		engine.WithResolver(identity.NewStatic(dataset.Segments(records))),
	}

	sinks, err := r.buildSinks(spec)
	if err != nil {
		return models.ExperimentResult{}, err
	}
	defer func() {
		for _, s := range sinks {
			s.Close() //nolint:errcheck
		}
	}()
	for _, s := range sinks {
		opts = append(opts, engine.WithSink(s))
	}

	// Sequential replay honors the recorded timeline through a virtual
	// clock; concurrent replay trades timing fidelity for load.
	var clock *virtualClock
	if !r.cfg.Concurrent() {
		clock = newVirtualClock(time.Now().UTC())
		opts = append(opts, engine.WithClock(clock.Now))
	}

	ctrl, err := engine.New(spec, opts...)
	if err != nil {
		return models.ExperimentResult{}, err
	}

	subjects := countSubjects(records)
	r.notifyProgress(ProgressEvent{
		EventType:     EventReplayStart,
		TotalSubjects: subjects,
	})

	if r.cfg.Concurrent() {
		err = r.replayConcurrent(ctx, ctrl, records, subjects)
	} else {
		err = r.replaySequential(ctx, ctrl, clock, records, subjects)
	}
	if err != nil {
		for _, s := range sinks {
			s.OnError("replay failed", map[string]any{"error": err.Error()})
		}
		return models.ExperimentResult{}, err
	}

	if result, ok := ctrl.Result(); ok {
		r.notifyProgress(ProgressEvent{
			EventType: EventReplayComplete,
			Details:   map[string]any{"reason": string(result.Reason)},
		})
		return result, nil
	}

	result := ctrl.Abort()
	r.notifyProgress(ProgressEvent{
		EventType: EventReplayComplete,
		Details:   map[string]any{"reason": string(result.Reason)},
	})
	return result, nil
}

func (r *Runner) buildSinks(spec *models.ExperimentSpec) ([]*session.Sink, error) {
	var sinks []*session.Sink
	if path := r.cfg.LogPath(); path != "" {
		logger, err := session.NewJSONLogger(path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, session.NewSink(logger))
	}
	for _, sc := range spec.Sinks {
		s, err := session.NewSinkFromConfig(sc)
		if err != nil {
			for _, open := range sinks {
				open.Close() //nolint:errcheck
			}
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// replaySequential walks records in file order, cranking the virtual clock
// to each record's offset before applying it.
func (r *Runner) replaySequential(ctx context.Context, ctrl *engine.Controller, clock *virtualClock, records []dataset.EventRecord, subjects int) error {
	base := clock.Now()
	entered := make(map[string]string)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		clock.Set(base.Add(time.Duration(rec.AtMS) * time.Millisecond))

		if stop, err := r.applyRecord(ctrl, rec, entered, subjects); err != nil {
			return err
		} else if stop {
			r.notifyProgress(ProgressEvent{
				EventType: EventReplayStopped,
				SubjectID: rec.SubjectID,
			})
			return nil
		}
	}
	return nil
}

// replayConcurrent replays each subject's record sequence on a worker pool.
// Per-subject order is preserved; cross-subject order is not.
func (r *Runner) replayConcurrent(ctx context.Context, ctrl *engine.Controller, records []dataset.EventRecord, subjects int) error {
	bySubject := make(map[string][]dataset.EventRecord)
	var order []string
	for _, rec := range records {
		if _, ok := bySubject[rec.SubjectID]; !ok {
			order = append(order, rec.SubjectID)
		}
		bySubject[rec.SubjectID] = append(bySubject[rec.SubjectID], rec)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers())

	for _, subjectID := range order {
		recs := bySubject[subjectID]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entered := make(map[string]string, 1)
			for _, rec := range recs {
				if stop, err := r.applyRecord(ctrl, rec, entered, subjects); err != nil || stop {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// applyRecord feeds one record into the controller. It returns stop=true
// once the experiment has reached its terminal state. entered maps each
// seen subject to their assigned variant.
func (r *Runner) applyRecord(ctrl *engine.Controller, rec dataset.EventRecord, entered map[string]string, total int) (bool, error) {
	if _, ok := entered[rec.SubjectID]; !ok {
		variant, err := ctrl.EnterExperiment(rec.SubjectID)
		if errors.Is(err, engine.ErrCompleted) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("entering subject %q: %w", rec.SubjectID, err)
		}
		entered[rec.SubjectID] = variant
		r.notifyProgress(ProgressEvent{
			EventType:     EventSubjectEntered,
			SubjectID:     rec.SubjectID,
			Variant:       variant,
			SubjectNum:    len(entered),
			TotalSubjects: total,
		})
	}

	switch {
	case rec.IsConversion():
		if err := ctrl.TrackConversion(rec.SubjectID); err != nil {
			return false, err
		}
		r.notifyProgress(ProgressEvent{
			EventType:     EventSubjectConverted,
			SubjectID:     rec.SubjectID,
			Variant:       entered[rec.SubjectID],
			SubjectNum:    len(entered),
			TotalSubjects: total,
		})
	case rec.IsImpression():
		// Entry markers carry no engagement signal; the impression was
		// counted by EnterExperiment above.
	default:
		if _, err := ctrl.TrackEngagement(rec.SubjectID, rec.EventType); err != nil {
			return false, err
		}
	}

	return ctrl.State() == engine.StateCompleted, nil
}

func countSubjects(records []dataset.EventRecord) int {
	seen := make(map[string]bool)
	for _, rec := range records {
		seen[rec.SubjectID] = true
	}
	return len(seen)
}
