package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogFile represents an experiment log file on disk.
type LogFile struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	NumEvents int
}

// ListLogs finds .jsonl experiment log files in dir.
func ListLogs(dir string) ([]LogFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading log directory: %w", err)
	}

	var files []LogFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, e.Name())
		n, _ := countLines(path) //nolint:errcheck
		files = append(files, LogFile{
			Path:      path,
			Name:      e.Name(),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			NumEvents: n,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck
	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

// ReadEvents parses all events from an experiment log file.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var events []Event
	scanner := bufio.NewScanner(f)
	// Increase buffer for large lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue // skip malformed lines
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log file: %w", err)
	}
	return events, nil
}

// RenderTimeline writes a human-readable experiment timeline to w.
//
//nolint:errcheck // display-only writes; errors are not actionable
func RenderTimeline(w io.Writer, events []Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w, " EXPERIMENT TIMELINE")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	start := events[0].Timestamp
	for _, ev := range events {
		elapsed := ev.Timestamp.Sub(start)
		ts := formatDuration(elapsed)

		switch ev.Type {
		case EventExperimentStart:
			name, _ := ev.Data["experiment"].(string) //nolint:errcheck
			minSample := jsonNumber(ev.Data["min_sample_size"])
			fmt.Fprintf(w, "[%s] 🚀 Experiment started  name=%s  min_sample=%d\n", ts, name, minSample)

		case EventVariantAssigned:
			subject, _ := ev.Data["subject_id"].(string) //nolint:errcheck
			variant, _ := ev.Data["variant"].(string)    //nolint:errcheck
			segment, _ := ev.Data["segment"].(string)    //nolint:errcheck
			fmt.Fprintf(w, "[%s] ▶  %s → %s (%s)\n", ts, subject, variant, segment)

		case EventEngagement:
			subject, _ := ev.Data["subject_id"].(string)  //nolint:errcheck
			eventType, _ := ev.Data["event_type"].(string) //nolint:errcheck
			score := jsonFloat(ev.Data["score"])
			fmt.Fprintf(w, "[%s]    %s %s  score=%.1f\n", ts, subject, eventType, score)

		case EventConversion:
			subject, _ := ev.Data["subject_id"].(string) //nolint:errcheck
			variant, _ := ev.Data["variant"].(string)    //nolint:errcheck
			elapsedMs := jsonNumber(ev.Data["elapsed_ms"])
			fmt.Fprintf(w, "[%s] ✓  %s converted on %s (%dms)\n", ts, subject, variant, elapsedMs)

		case EventError:
			msg, _ := ev.Data["message"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] ❌ Error: %s\n", ts, msg)

		case EventExperimentComplete:
			winner, _ := ev.Data["winner"].(string) //nolint:errcheck
			reason, _ := ev.Data["reason"].(string) //nolint:errcheck
			confidence := jsonFloat(ev.Data["confidence"])
			total := jsonNumber(ev.Data["total_samples"])
			fmt.Fprintf(w, "[%s] 🏁 Experiment complete  winner=%s  confidence=%.1f%%  samples=%d  (%s)\n",
				ts, winner, confidence, total, reason)

		default:
			fmt.Fprintf(w, "[%s] %s %v\n", ts, ev.Type, ev.Data)
		}
	}
	fmt.Fprintln(w)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%6dms", d.Milliseconds())
	}
	return fmt.Sprintf("%6.1fs", d.Seconds())
}

// jsonNumber extracts a number from a JSON-decoded interface{} (float64 or json.Number).
func jsonNumber(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64() //nolint:errcheck
		return int(i)
	}
	return 0
}

func jsonFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64() //nolint:errcheck
		return f
	}
	return 0
}
