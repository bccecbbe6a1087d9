package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spboyer/splitlab/internal/content"
	"gopkg.in/yaml.v3"
)

// Configuration errors surfaced when an experiment definition is created.
// These are fatal at definition time and never deferred.
var (
	ErrNoVariants          = errors.New("experiment has no variants")
	ErrDuplicateVariant    = errors.New("experiment variants must be unique")
	ErrInvalidTrafficSplit = errors.New("traffic_split must be in [0, 1]")
	ErrInvalidSampleSize   = errors.New("min_sample_size must be at least 1")
)

// ExperimentSpec is the complete definition of an experiment. It is created
// once and immutable for the lifetime of the test.
type ExperimentSpec struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Variants    []string `yaml:"variants" json:"variants"`

	// TrafficSplit is the fraction of subjects routed to Variants[1]. It is
	// only meaningful with exactly two variants.
	TrafficSplit   float64 `yaml:"traffic_split" json:"traffic_split"`
	MinSampleSize  int     `yaml:"min_sample_size" json:"min_sample_size"`
	MaxDurationSec int     `yaml:"max_duration_seconds" json:"max_duration_sec"`

	ScoringEnabled  bool `yaml:"scoring,omitempty" json:"scoring_enabled"`
	SegmentTracking bool `yaml:"segment_tracking,omitempty" json:"segment_tracking"`

	// Content holds per-variant content bundle overrides for the presentation
	// layer. Variants without an entry fall back to the default bundle.
	Content map[string]content.Bundle `yaml:"content,omitempty" json:"content,omitempty"`

	// Sinks configures lifecycle notification sinks. Params are decoded by
	// the sink implementation.
	Sinks []SinkConfig `yaml:"sinks,omitempty" json:"sinks,omitempty"`
}

// SinkConfig defines a notification sink attached to the experiment.
type SinkConfig struct {
	Kind   string         `yaml:"type" json:"kind"`
	Params map[string]any `yaml:"config,omitempty" json:"params,omitempty"`
}

// LoadExperimentSpec loads and validates a spec from a YAML file.
func LoadExperimentSpec(path string) (*ExperimentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec ExperimentSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Validate checks that the spec is a usable experiment definition.
func (s *ExperimentSpec) Validate() error {
	if s.Name == "" {
		return errors.New("experiment name is required")
	}
	if len(s.Variants) == 0 {
		return ErrNoVariants
	}
	if len(s.Variants) < 2 {
		return fmt.Errorf("experiment %q needs at least 2 variants, got %d", s.Name, len(s.Variants))
	}
	seen := make(map[string]bool, len(s.Variants))
	for _, v := range s.Variants {
		if v == "" {
			return fmt.Errorf("experiment %q has an empty variant label", s.Name)
		}
		if seen[v] {
			return fmt.Errorf("%w: %q appears more than once", ErrDuplicateVariant, v)
		}
		seen[v] = true
	}
	if s.TrafficSplit < 0 || s.TrafficSplit > 1 {
		return fmt.Errorf("%w, got %v", ErrInvalidTrafficSplit, s.TrafficSplit)
	}
	if s.MinSampleSize < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidSampleSize, s.MinSampleSize)
	}
	if s.MaxDurationSec < 1 {
		return fmt.Errorf("experiment %q max_duration_seconds must be at least 1, got %d", s.Name, s.MaxDurationSec)
	}
	return nil
}

// MaxDuration returns the configured duration cap.
func (s *ExperimentSpec) MaxDuration() time.Duration {
	return time.Duration(s.MaxDurationSec) * time.Second
}
