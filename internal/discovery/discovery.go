// Package discovery finds experiment directories under a root by walking
// for experiment.yaml spec files.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SpecFileName is the file name that marks an experiment directory.
const SpecFileName = "experiment.yaml"

// DiscoveredExperiment represents an experiment found during directory traversal.
type DiscoveredExperiment struct {
	Name       string // directory name containing experiment.yaml
	SpecPath   string // absolute path to experiment.yaml
	EventsPath string // absolute path to events.csv (empty if not found)
	Dir        string // absolute path to the experiment directory
}

// HasEvents returns true if the experiment has a recorded event stream.
func (d DiscoveredExperiment) HasEvents() bool {
	return d.EventsPath != ""
}

// Discover walks the given root directory and finds all experiments.
// An experiment is a directory containing experiment.yaml. An event
// stream is events.csv either in the same directory or in an events/
// subdirectory.
func Discover(root string) ([]DiscoveredExperiment, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root path: %w", err)
	}

	// Verify root exists before walking
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}

	var experiments []DiscoveredExperiment

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}

		// Skip hidden directories
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") && path != absRoot {
			return fs.SkipDir
		}

		// Skip node_modules and similar
		if d.IsDir() && (d.Name() == "node_modules" || d.Name() == "vendor") {
			return fs.SkipDir
		}

		if !d.IsDir() && d.Name() == SpecFileName {
			dir := filepath.Dir(path)
			experiments = append(experiments, DiscoveredExperiment{
				Name:       filepath.Base(dir),
				SpecPath:   path,
				EventsPath: findEventStream(dir),
				Dir:        dir,
			})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %s: %w", absRoot, err)
	}

	return experiments, nil
}

// findEventStream looks for events.csv in standard locations relative to
// an experiment directory. Priority: events.csv > events/events.csv
func findEventStream(dir string) string {
	candidates := []string{
		filepath.Join(dir, "events.csv"),
		filepath.Join(dir, "events", "events.csv"),
	}

	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}
	return ""
}

// FilterWithEvents returns only experiments that have a recorded stream.
func FilterWithEvents(experiments []DiscoveredExperiment) []DiscoveredExperiment {
	var result []DiscoveredExperiment
	for _, e := range experiments {
		if e.HasEvents() {
			result = append(result, e)
		}
	}
	return result
}

// FilterWithoutEvents returns only experiments that lack a recorded stream.
func FilterWithoutEvents(experiments []DiscoveredExperiment) []DiscoveredExperiment {
	var result []DiscoveredExperiment
	for _, e := range experiments {
		if !e.HasEvents() {
			result = append(result, e)
		}
	}
	return result
}

// fileExists checks if a path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// SpecPaths extracts the spec paths from a discovery result.
func SpecPaths(experiments []DiscoveredExperiment) []string {
	paths := make([]string, 0, len(experiments))
	for _, e := range experiments {
		paths = append(paths, e.SpecPath)
	}
	return paths
}
