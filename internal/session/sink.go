package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/splitlab/internal/models"
)

// ErrUnknownSinkKind indicates a sink type not supported by this package.
var ErrUnknownSinkKind = errors.New("unknown sink type")

// Sink forwards experiment lifecycle callbacks to a Logger as NDJSON events.
// It satisfies the engine's sink interface.
type Sink struct {
	logger  Logger
	archive bool
}

// NewSink wraps logger in a Sink.
func NewSink(logger Logger) *Sink {
	return &Sink{logger: logger}
}

type jsonlParams struct {
	Path    string `mapstructure:"path"`
	Archive bool   `mapstructure:"archive"`
}

// NewSinkFromConfig builds a Sink from a polymorphic sink definition as it
// appears in an experiment file. Supported types are "jsonl" (params: path,
// archive) and "nop".
func NewSinkFromConfig(cfg models.SinkConfig) (*Sink, error) {
	switch cfg.Kind {
	case "jsonl":
		var params jsonlParams
		if err := mapstructure.Decode(cfg.Params, &params); err != nil {
			return nil, fmt.Errorf("decoding jsonl sink config: %w", err)
		}
		if params.Path == "" {
			return nil, fmt.Errorf("jsonl sink: path is required")
		}
		logger, err := NewJSONLogger(params.Path)
		if err != nil {
			return nil, err
		}
		return &Sink{logger: logger, archive: params.Archive}, nil

	case "nop", "":
		return NewSink(NopLogger{}), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSinkKind, cfg.Kind)
	}
}

// OnExperimentStart records the beginning of an experiment.
func (s *Sink) OnExperimentStart(name string, variants []string, minSampleSize int) {
	s.log(EventExperimentStart, ExperimentStartData(name, variants, minSampleSize))
}

// OnVariantAssigned records a subject entering the experiment.
func (s *Sink) OnVariantAssigned(subjectID, variant string, segment models.Segment) {
	s.log(EventVariantAssigned, VariantAssignedData(subjectID, variant, string(segment)))
}

// OnEngagement records a scored engagement event.
func (s *Sink) OnEngagement(subjectID, variant, eventType string, score float64) {
	s.log(EventEngagement, EngagementData(subjectID, variant, eventType, score))
}

// OnConversion records a subject converting.
func (s *Sink) OnConversion(subjectID, variant string, elapsed time.Duration) {
	s.log(EventConversion, ConversionData(subjectID, variant, elapsed.Milliseconds()))
}

// OnTestComplete records the final result.
func (s *Sink) OnTestComplete(result models.ExperimentResult) {
	s.log(EventExperimentComplete, ExperimentCompleteData(
		result.Name,
		result.Winner,
		result.Confidence,
		result.TotalSampleSize,
		string(result.Reason),
		result.Duration.Milliseconds(),
	))
}

// OnError records a failure encountered while driving the experiment, such
// as a replay error, so the log tells the whole story of a run.
func (s *Sink) OnError(message string, details map[string]any) {
	s.log(EventError, ErrorData(message, details))
}

// Close closes the underlying logger and, when configured, compresses the
// finished log in place.
func (s *Sink) Close() error {
	if err := s.logger.Close(); err != nil {
		return err
	}
	if !s.archive {
		return nil
	}
	jl, ok := s.logger.(*JSONLogger)
	if !ok {
		return nil
	}
	if _, err := Archive(jl.Path()); err != nil {
		return fmt.Errorf("archiving experiment log: %w", err)
	}
	return nil
}

func (s *Sink) log(t EventType, data map[string]any) {
	// Sink callbacks are fire-and-forget; a failed write must not disturb
	// the experiment itself.
	_ = s.logger.Log(NewEvent(t, data))
}
