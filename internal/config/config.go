// Package config carries the resolved run-time configuration for an
// experiment run. It wraps the immutable experiment definition together with
// the knobs that come from flags rather than the YAML file.
package config

import (
	"github.com/spboyer/splitlab/internal/models"
)

// RunConfig holds everything a simulation run needs beyond the experiment
// definition itself.
type RunConfig struct {
	spec *models.ExperimentSpec

	eventsPath string
	outputPath string
	logPath    string
	verbose    bool
	concurrent bool
	workers    int
}

// RunOption configures a RunConfig.
type RunOption func(*RunConfig)

// WithEventsPath sets the recorded event stream CSV to replay.
func WithEventsPath(path string) RunOption {
	return func(c *RunConfig) { c.eventsPath = path }
}

// WithOutputPath sets where the results JSON is written.
func WithOutputPath(path string) RunOption {
	return func(c *RunConfig) { c.outputPath = path }
}

// WithLogPath sets the NDJSON experiment log path.
func WithLogPath(path string) RunOption {
	return func(c *RunConfig) { c.logPath = path }
}

// WithVerbose enables verbose progress output.
func WithVerbose(v bool) RunOption {
	return func(c *RunConfig) { c.verbose = v }
}

// WithConcurrent replays subjects concurrently instead of in recorded order.
func WithConcurrent(v bool) RunOption {
	return func(c *RunConfig) { c.concurrent = v }
}

// WithWorkers sets the number of concurrent replay workers.
func WithWorkers(n int) RunOption {
	return func(c *RunConfig) { c.workers = n }
}

// NewRunConfig creates a RunConfig for spec with the given options applied.
func NewRunConfig(spec *models.ExperimentSpec, opts ...RunOption) *RunConfig {
	c := &RunConfig{spec: spec}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Spec returns the experiment definition.
func (c *RunConfig) Spec() *models.ExperimentSpec { return c.spec }

// EventsPath returns the recorded event stream path, if any.
func (c *RunConfig) EventsPath() string { return c.eventsPath }

// OutputPath returns the results JSON path, if any.
func (c *RunConfig) OutputPath() string { return c.outputPath }

// LogPath returns the NDJSON experiment log path, if any.
func (c *RunConfig) LogPath() string { return c.logPath }

// Verbose reports whether verbose output is enabled.
func (c *RunConfig) Verbose() bool { return c.verbose }

// Concurrent reports whether subjects are replayed concurrently.
func (c *RunConfig) Concurrent() bool { return c.concurrent }

// Workers returns the concurrent worker count, defaulting to 4.
func (c *RunConfig) Workers() int {
	if c.workers <= 0 {
		return 4
	}
	return c.workers
}
