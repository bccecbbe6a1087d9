package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// setupExperimentDir creates an experiment.yaml in the given directory.
func setupExperimentDir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, SpecFileName), []byte("name: test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// setupEventsFile creates an events.csv at the given path.
func setupEventsFile(t *testing.T, path string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("subject_id,segment,event_type,at_ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverMultipleExperiments(t *testing.T) {
	root := t.TempDir()

	// hero-copy: has events.csv next to the spec
	setupExperimentDir(t, filepath.Join(root, "hero-copy"))
	setupEventsFile(t, filepath.Join(root, "hero-copy", "events.csv"))

	// cta-color: has events/events.csv
	setupExperimentDir(t, filepath.Join(root, "cta-color"))
	setupEventsFile(t, filepath.Join(root, "cta-color", "events", "events.csv"))

	experiments, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(experiments) != 2 {
		t.Fatalf("expected 2 experiments, got %d", len(experiments))
	}

	// Sort for deterministic ordering
	sort.Slice(experiments, func(i, j int) bool { return experiments[i].Name < experiments[j].Name })

	if experiments[0].Name != "cta-color" {
		t.Errorf("expected cta-color, got %s", experiments[0].Name)
	}
	if !experiments[0].HasEvents() {
		t.Error("cta-color should have an event stream")
	}
	if experiments[1].Name != "hero-copy" {
		t.Errorf("expected hero-copy, got %s", experiments[1].Name)
	}
	if filepath.Base(experiments[1].EventsPath) != "events.csv" {
		t.Errorf("unexpected events path %s", experiments[1].EventsPath)
	}
}

func TestDiscoverWithoutEvents(t *testing.T) {
	root := t.TempDir()
	setupExperimentDir(t, filepath.Join(root, "no-stream"))

	experiments, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(experiments) != 1 {
		t.Fatalf("expected 1 experiment, got %d", len(experiments))
	}
	if experiments[0].HasEvents() {
		t.Error("experiment should not have an event stream")
	}
}

func TestDiscoverSkipsHiddenAndVendorDirs(t *testing.T) {
	root := t.TempDir()
	setupExperimentDir(t, filepath.Join(root, ".hidden", "exp"))
	setupExperimentDir(t, filepath.Join(root, "node_modules", "exp"))
	setupExperimentDir(t, filepath.Join(root, "vendor", "exp"))
	setupExperimentDir(t, filepath.Join(root, "visible"))

	experiments, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(experiments) != 1 {
		t.Fatalf("expected 1 experiment, got %d", len(experiments))
	}
	if experiments[0].Name != "visible" {
		t.Errorf("expected visible, got %s", experiments[0].Name)
	}
}

func TestDiscoverNestedExperiments(t *testing.T) {
	root := t.TempDir()
	setupExperimentDir(t, filepath.Join(root, "team", "landing", "hero-copy"))

	experiments, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(experiments) != 1 {
		t.Fatalf("expected 1 experiment, got %d", len(experiments))
	}
	if experiments[0].Name != "hero-copy" {
		t.Errorf("expected hero-copy, got %s", experiments[0].Name)
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestFilters(t *testing.T) {
	experiments := []DiscoveredExperiment{
		{Name: "a", EventsPath: "/tmp/a/events.csv"},
		{Name: "b"},
		{Name: "c", EventsPath: "/tmp/c/events.csv"},
	}

	with := FilterWithEvents(experiments)
	if len(with) != 2 {
		t.Fatalf("expected 2 with events, got %d", len(with))
	}

	without := FilterWithoutEvents(experiments)
	if len(without) != 1 || without[0].Name != "b" {
		t.Fatalf("unexpected without filter result: %+v", without)
	}
}

func TestSpecPaths(t *testing.T) {
	experiments := []DiscoveredExperiment{
		{SpecPath: "/a/experiment.yaml"},
		{SpecPath: "/b/experiment.yaml"},
	}
	paths := SpecPaths(experiments)
	if len(paths) != 2 || paths[0] != "/a/experiment.yaml" {
		t.Fatalf("unexpected paths: %v", paths)
	}
}
