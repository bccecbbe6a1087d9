// Package projectconfig provides the ProjectConfig struct and loader for
// .splitlab.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for project configuration. These are the single source of
// truth. New() references them and no other code should duplicate them.
const (
	DefaultLogsDir    = "logs/"
	DefaultResultsDir = "results/"

	DefaultMinSampleSize  = 100
	DefaultMaxDurationSec = 604800 // 7 days
	DefaultTrafficSplit   = 0.5
	DefaultWorkers        = 4

	DefaultCacheDir = ".splitlab-cache"

	DefaultServerPort = 3000
)

// PathsConfig holds directory paths for logs and results.
type PathsConfig struct {
	Logs    string `yaml:"logs,omitempty"`
	Results string `yaml:"results,omitempty"`
}

// DefaultsConfig holds default experiment parameters applied by the wizard
// and scaffolding when a spec does not pin them.
type DefaultsConfig struct {
	MinSampleSize  int     `yaml:"min_sample_size,omitempty"`
	MaxDurationSec int     `yaml:"max_duration_seconds,omitempty"`
	TrafficSplit   float64 `yaml:"traffic_split,omitempty"`
	Parallel       *bool   `yaml:"parallel,omitempty"`
	Workers        int     `yaml:"workers,omitempty"`
	Verbose        *bool   `yaml:"verbose,omitempty"`
}

// CacheConfig holds replay cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// ServerConfig holds dashboard server settings.
type ServerConfig struct {
	Port int `yaml:"port,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .splitlab.yaml.
type ProjectConfig struct {
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Logs:    DefaultLogsDir,
			Results: DefaultResultsDir,
		},
		Defaults: DefaultsConfig{
			MinSampleSize:  DefaultMinSampleSize,
			MaxDurationSec: DefaultMaxDurationSec,
			TrafficSplit:   DefaultTrafficSplit,
			Parallel:       boolPtr(false),
			Workers:        DefaultWorkers,
			Verbose:        boolPtr(false),
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
	}
}

// Load finds .splitlab.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading .splitlab.yaml: %w", err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing .splitlab.yaml: %w", err)
	}

	// Merge file values onto defaults.
	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .splitlab.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found. Propagates real I/O
// errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ".splitlab.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Logs != "" {
		dst.Paths.Logs = src.Paths.Logs
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}

	// Defaults
	if src.Defaults.MinSampleSize != 0 {
		dst.Defaults.MinSampleSize = src.Defaults.MinSampleSize
	}
	if src.Defaults.MaxDurationSec != 0 {
		dst.Defaults.MaxDurationSec = src.Defaults.MaxDurationSec
	}
	if src.Defaults.TrafficSplit != 0 {
		dst.Defaults.TrafficSplit = src.Defaults.TrafficSplit
	}
	if src.Defaults.Parallel != nil {
		dst.Defaults.Parallel = src.Defaults.Parallel
	}
	if src.Defaults.Workers != 0 {
		dst.Defaults.Workers = src.Defaults.Workers
	}
	if src.Defaults.Verbose != nil {
		dst.Defaults.Verbose = src.Defaults.Verbose
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
}

func boolPtr(b bool) *bool {
	return &b
}
