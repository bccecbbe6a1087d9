// Package scaffold provides shared template functions for generating
// experiment spec files and sample event streams used by splitlab new.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spboyer/splitlab/internal/projectconfig"
)

// ValidateName rejects names with path-traversal characters or empty names.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("experiment name must not be empty")
	}
	cleaned := filepath.Clean(name)
	if cleaned == ".." || strings.Contains(cleaned, "/") || strings.Contains(cleaned, "\\") {
		return fmt.Errorf("experiment name %q contains invalid path characters", name)
	}
	return nil
}

// TitleCase converts a kebab-case name to Title Case.
func TitleCase(s string) string {
	words := strings.Split(s, "-")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ReadProjectDefaults resolves the default min_sample_size,
// max_duration_seconds, and traffic_split from .splitlab.yaml, walking up
// from the working directory. Missing config falls back to the project
// defaults.
func ReadProjectDefaults() (minSampleSize, maxDurationSec int, trafficSplit float64) {
	dir, err := os.Getwd()
	if err != nil {
		return projectconfig.DefaultMinSampleSize, projectconfig.DefaultMaxDurationSec, projectconfig.DefaultTrafficSplit
	}
	cfg, err := projectconfig.Load(dir)
	if err != nil {
		return projectconfig.DefaultMinSampleSize, projectconfig.DefaultMaxDurationSec, projectconfig.DefaultTrafficSplit
	}
	return cfg.Defaults.MinSampleSize, cfg.Defaults.MaxDurationSec, cfg.Defaults.TrafficSplit
}

// ExperimentYAML returns a default experiment spec for the given name and
// variants. The first variant receives a content bundle stub so the file
// validates and runs as written.
func ExperimentYAML(name string, variants []string, trafficSplit float64, minSampleSize, maxDurationSec int, scoring, segments bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "name: %s\n", name)
	b.WriteString("variants:\n")
	for _, v := range variants {
		fmt.Fprintf(&b, "  - %s\n", v)
	}
	fmt.Fprintf(&b, "traffic_split: %g\n", trafficSplit)
	fmt.Fprintf(&b, "min_sample_size: %d\n", minSampleSize)
	fmt.Fprintf(&b, "max_duration_seconds: %d\n", maxDurationSec)
	fmt.Fprintf(&b, "scoring: %t\n", scoring)
	fmt.Fprintf(&b, "segment_tracking: %t\n", segments)

	b.WriteString("content:\n")
	for i, v := range variants {
		fmt.Fprintf(&b, "  %s:\n", v)
		if i == 0 {
			fmt.Fprintf(&b, "    hero: \"%s: the proven experience\"\n", TitleCase(name))
			b.WriteString("    cta: \"Get started\"\n")
		} else {
			fmt.Fprintf(&b, "    hero: \"%s: try the new experience\"\n", TitleCase(name))
			b.WriteString("    cta: \"Try it now\"\n")
			b.WriteString("    urgency: \"Limited preview\"\n")
		}
	}

	b.WriteString("sinks:\n")
	b.WriteString("  - type: jsonl\n")
	b.WriteString("    config:\n")
	fmt.Fprintf(&b, "      path: logs/%s.jsonl\n", name)

	return b.String()
}

// SampleEventsCSV returns a small recorded event stream that exercises
// assignment, engagement scoring, and conversion for the given variants.
func SampleEventsCSV() string {
	return `subject_id,segment,event_type,at_ms
user-001,analytical,hero_view,0
user-001,analytical,pricing_view,2500
user-001,analytical,conversion,6000
user-002,creative,hero_view,500
user-002,creative,cta_hover,1800
user-003,pragmatic,hero_view,900
user-003,pragmatic,form_focus,3200
user-003,pragmatic,conversion,9100
user-004,social,hero_view,1200
user-004,social,social_proof_view,2400
`
}
