package session

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spboyer/splitlab/internal/models"
)

func TestNewEvent(t *testing.T) {
	data := map[string]any{"key": "value"}
	ev := NewEvent(EventExperimentStart, data)

	if ev.Type != EventExperimentStart {
		t.Errorf("Type = %q, want %q", ev.Type, EventExperimentStart)
	}
	if ev.Data["key"] != "value" {
		t.Errorf("Data[key] = %v, want %q", ev.Data["key"], "value")
	}
	if ev.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestEventJSON(t *testing.T) {
	ts := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	ev := Event{
		Timestamp: ts,
		Type:      EventVariantAssigned,
		Data:      VariantAssignedData("user-42", "treatment", "analytical"),
	}

	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Type != EventVariantAssigned {
		t.Errorf("decoded.Type = %q, want %q", decoded.Type, EventVariantAssigned)
	}
	if !decoded.Timestamp.Equal(ts) {
		t.Errorf("decoded.Timestamp = %v, want %v", decoded.Timestamp, ts)
	}
	if decoded.Data["subject_id"] != "user-42" {
		t.Errorf("subject_id = %v, want %q", decoded.Data["subject_id"], "user-42")
	}
}

func TestExperimentStartData(t *testing.T) {
	d := ExperimentStartData("hero-copy", []string{"control", "treatment"}, 100)
	if d["experiment"] != "hero-copy" {
		t.Errorf("experiment = %v", d["experiment"])
	}
	if d["min_sample_size"] != 100 {
		t.Errorf("min_sample_size = %v", d["min_sample_size"])
	}
}

func TestConversionData(t *testing.T) {
	d := ConversionData("user-1", "treatment", 4500)
	if d["variant"] != "treatment" {
		t.Errorf("variant = %v", d["variant"])
	}
	if d["elapsed_ms"] != int64(4500) {
		t.Errorf("elapsed_ms = %v", d["elapsed_ms"])
	}
}

func TestErrorData(t *testing.T) {
	d := ErrorData("sink write failed", map[string]any{"subject": "user-1"})
	if d["message"] != "sink write failed" {
		t.Errorf("message = %v", d["message"])
	}
	if d["subject"] != "user-1" {
		t.Errorf("subject = %v", d["subject"])
	}
}

func TestJSONLogger(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test-experiment.jsonl")

	logger, err := NewJSONLogger(path)
	if err != nil {
		t.Fatalf("NewJSONLogger: %v", err)
	}

	events := []Event{
		NewEvent(EventExperimentStart, ExperimentStartData("e", []string{"a", "b"}, 10)),
		NewEvent(EventVariantAssigned, VariantAssignedData("u1", "a", "pragmatic")),
		NewEvent(EventConversion, ConversionData("u1", "a", 1200)),
		NewEvent(EventExperimentComplete, ExperimentCompleteData("e", "a", 97.5, 120, "significance_reached", 60000)),
	}

	for _, ev := range events {
		if err := logger.Log(ev); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Verify the file was written with one JSON object per line
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}

	var first Event
	if err := json.Unmarshal(lines[0], &first); err != nil {
		t.Fatalf("Unmarshal line 0: %v", err)
	}
	if first.Type != EventExperimentStart {
		t.Errorf("first event type = %q, want %q", first.Type, EventExperimentStart)
	}
}

func TestJSONLoggerPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "test.jsonl")

	logger, err := NewJSONLogger(path)
	if err != nil {
		t.Fatalf("NewJSONLogger with subdirectory: %v", err)
	}
	defer logger.Close() //nolint:errcheck

	if logger.Path() != path {
		t.Errorf("Path() = %q, want %q", logger.Path(), path)
	}
}

func TestNopLogger(t *testing.T) {
	var logger Logger = NopLogger{}
	if err := logger.Log(NewEvent(EventExperimentStart, nil)); err != nil {
		t.Errorf("NopLogger.Log should not error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("NopLogger.Close should not error: %v", err)
	}
}

func TestDefaultLogPath(t *testing.T) {
	p := DefaultLogPath("/tmp/experiments", "Hero Copy v2")
	if filepath.Dir(p) != "/tmp/experiments" {
		t.Errorf("dir = %q, want /tmp/experiments", filepath.Dir(p))
	}
	if ext := filepath.Ext(p); ext != ".jsonl" {
		t.Errorf("ext = %q, want .jsonl", ext)
	}
	if !strings.HasSuffix(p, "-hero-copy-v2.jsonl") {
		t.Errorf("path = %q, want slugged experiment name suffix", p)
	}

	if p := DefaultLogPath("/tmp/experiments", "???"); !strings.HasSuffix(p, "-experiment.jsonl") {
		t.Errorf("path = %q, want fallback name for unusable input", p)
	}
}

func TestListLogs(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"20260115T100000Z-experiment.jsonl",
		"20260116T100000Z-hero-copy.jsonl",
		"not-a-log.txt",
	} {
		os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0644) //nolint:errcheck
	}

	files, err := ListLogs(dir)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
}

func TestListLogsNoDir(t *testing.T) {
	_, err := ListLogs("/nonexistent/dir")
	if err == nil {
		t.Error("expected error for nonexistent directory")
	}
}

func TestReadEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test-experiment.jsonl")

	logger, err := NewJSONLogger(path)
	if err != nil {
		t.Fatalf("NewJSONLogger: %v", err)
	}
	logger.Log(NewEvent(EventExperimentStart, ExperimentStartData("e", []string{"a", "b"}, 10)))                //nolint:errcheck
	logger.Log(NewEvent(EventVariantAssigned, VariantAssignedData("u1", "a", "social")))                        //nolint:errcheck
	logger.Log(NewEvent(EventEngagement, EngagementData("u1", "a", "cta_hover", 15)))                           //nolint:errcheck
	logger.Log(NewEvent(EventExperimentComplete, ExperimentCompleteData("e", "a", 96, 110, "aborted", 12000))) //nolint:errcheck
	logger.Close()                                                                                              //nolint:errcheck

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[0].Type != EventExperimentStart {
		t.Errorf("events[0].Type = %q", events[0].Type)
	}
	if events[3].Type != EventExperimentComplete {
		t.Errorf("events[3].Type = %q", events[3].Type)
	}
}

func TestReadEventsSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test-experiment.jsonl")

	content := `{"timestamp":"2026-03-15T10:00:00Z","type":"experiment_start","data":{}}
not valid json
{"timestamp":"2026-03-15T10:00:01Z","type":"experiment_complete","data":{}}
`
	os.WriteFile(path, []byte(content), 0644) //nolint:errcheck

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (malformed line skipped)", len(events))
	}
}

func TestRenderTimeline(t *testing.T) {
	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, Type: EventExperimentStart, Data: ExperimentStartData("hero-copy", []string{"a", "b"}, 100)},
		{Timestamp: base.Add(100 * time.Millisecond), Type: EventVariantAssigned, Data: VariantAssignedData("user-1", "a", "creative")},
		{Timestamp: base.Add(200 * time.Millisecond), Type: EventEngagement, Data: EngagementData("user-1", "a", "hero_view", 10)},
		{Timestamp: base.Add(300 * time.Millisecond), Type: EventConversion, Data: ConversionData("user-1", "a", 300)},
		{Timestamp: base.Add(400 * time.Millisecond), Type: EventError, Data: ErrorData("something broke", nil)},
		{Timestamp: base.Add(500 * time.Millisecond), Type: EventExperimentComplete, Data: ExperimentCompleteData("hero-copy", "a", 96.2, 150, "significance_reached", 500)},
	}

	var buf bytes.Buffer
	RenderTimeline(&buf, events)

	output := buf.String()
	if !bytes.Contains([]byte(output), []byte("EXPERIMENT TIMELINE")) {
		t.Error("output should contain EXPERIMENT TIMELINE header")
	}
	if !bytes.Contains([]byte(output), []byte("user-1")) {
		t.Error("output should contain subject id")
	}
	if !bytes.Contains([]byte(output), []byte("hero-copy")) {
		t.Error("output should contain experiment name")
	}
	if !bytes.Contains([]byte(output), []byte("something broke")) {
		t.Error("output should contain error message")
	}
}

func TestRenderTimelineEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderTimeline(&buf, nil)
	if !bytes.Contains(buf.Bytes(), []byte("No events found.")) {
		t.Error("empty events should print 'No events found.'")
	}
}

func TestSinkWritesLifecycleEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sink-experiment.jsonl")

	logger, err := NewJSONLogger(path)
	if err != nil {
		t.Fatalf("NewJSONLogger: %v", err)
	}
	sink := NewSink(logger)

	sink.OnExperimentStart("hero-copy", []string{"control", "treatment"}, 100)
	sink.OnVariantAssigned("user-1", "treatment", models.SegmentCreative)
	sink.OnEngagement("user-1", "treatment", "hero_view", 15)
	sink.OnConversion("user-1", "treatment", 4500*time.Millisecond)
	sink.OnTestComplete(models.ExperimentResult{
		Name:            "hero-copy",
		Winner:          "treatment",
		Confidence:      97.1,
		TotalSampleSize: 150,
		Reason:          models.CompletionSignificance,
		Duration:        time.Minute,
	})
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}

	want := []EventType{
		EventExperimentStart,
		EventVariantAssigned,
		EventEngagement,
		EventConversion,
		EventExperimentComplete,
	}
	for i, w := range want {
		if events[i].Type != w {
			t.Errorf("events[%d].Type = %q, want %q", i, events[i].Type, w)
		}
	}
	if events[3].Data["elapsed_ms"] != float64(4500) {
		t.Errorf("elapsed_ms = %v, want 4500", events[3].Data["elapsed_ms"])
	}
}

func TestSinkRecordsErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "err-experiment.jsonl")

	logger, err := NewJSONLogger(path)
	if err != nil {
		t.Fatalf("NewJSONLogger: %v", err)
	}
	sink := NewSink(logger)
	sink.OnError("replay failed", map[string]any{"subject": "u9"})
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("events = %+v, want one error event", events)
	}
	if events[0].Data["message"] != "replay failed" {
		t.Errorf("message = %v, want %q", events[0].Data["message"], "replay failed")
	}
	if events[0].Data["subject"] != "u9" {
		t.Errorf("subject = %v, want u9", events[0].Data["subject"])
	}
}

func TestNewSinkFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg-experiment.jsonl")

	sink, err := NewSinkFromConfig(models.SinkConfig{
		Kind:   "jsonl",
		Params: map[string]any{"path": path},
	})
	if err != nil {
		t.Fatalf("NewSinkFromConfig: %v", err)
	}
	sink.OnVariantAssigned("u1", "a", models.SegmentPragmatic)
	sink.Close() //nolint:errcheck

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
}

func TestNewSinkFromConfigErrors(t *testing.T) {
	if _, err := NewSinkFromConfig(models.SinkConfig{Kind: "kafka"}); err == nil {
		t.Error("expected error for unknown sink type")
	}
	if _, err := NewSinkFromConfig(models.SinkConfig{Kind: "jsonl"}); err == nil {
		t.Error("expected error for jsonl sink without path")
	}
}

func TestNewSinkFromConfigNop(t *testing.T) {
	sink, err := NewSinkFromConfig(models.SinkConfig{Kind: "nop"})
	if err != nil {
		t.Fatalf("NewSinkFromConfig: %v", err)
	}
	sink.OnVariantAssigned("u1", "a", models.SegmentSocial)
	if err := sink.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old-experiment.jsonl")

	content := []byte(`{"timestamp":"2026-03-15T10:00:00Z","type":"experiment_start","data":{}}` + "\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	archivePath, err := Archive(path)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archivePath != path+".zst" {
		t.Errorf("archivePath = %q, want %q", archivePath, path+".zst")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original log should be removed after archival")
	}

	data, err := ReadArchive(archivePath)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("round-trip mismatch: got %q", data)
	}
}

func TestSinkArchivesOnClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archiving-experiment.jsonl")

	sink, err := NewSinkFromConfig(models.SinkConfig{
		Kind:   "jsonl",
		Params: map[string]any{"path": path, "archive": true},
	})
	if err != nil {
		t.Fatalf("NewSinkFromConfig: %v", err)
	}
	sink.OnVariantAssigned("u1", "a", models.SegmentAnalytical)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(path + ".zst"); err != nil {
		t.Errorf("expected archive at %s.zst: %v", path, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original log should be removed after archival")
	}
}
