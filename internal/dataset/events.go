package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/spboyer/splitlab/internal/models"
)

const (
	// ConversionEvent is the event_type value that marks a conversion row.
	ConversionEvent = "conversion"

	// ImpressionEvent marks a subject entering the experiment. It carries
	// no engagement signal of its own; entry already counts the impression.
	ImpressionEvent = "impression"
)

// EventRecord is one recorded subject interaction from an event stream file.
// Records for a subject are replayed in file order; AtMS is the offset from
// the start of the recording.
type EventRecord struct {
	SubjectID string
	Segment   models.Segment
	EventType string
	AtMS      int64
}

// IsConversion reports whether the record marks a conversion.
func (r EventRecord) IsConversion() bool {
	return r.EventType == ConversionEvent
}

// IsImpression reports whether the record is an entry marker rather than
// an engagement signal.
func (r EventRecord) IsImpression() bool {
	return r.EventType == ImpressionEvent
}

// columns holds the header positions of the event stream schema. Column
// order in the file is free as long as the required names are present.
type columns struct {
	subjectID int
	segment   int
	eventType int
	atMS      int
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{subjectID: -1, segment: -1, eventType: -1, atMS: -1}
	for i, name := range header {
		switch name {
		case "subject_id":
			cols.subjectID = i
		case "segment":
			cols.segment = i
		case "event_type":
			cols.eventType = i
		case "at_ms":
			cols.atMS = i
		}
	}
	for _, req := range []struct {
		name string
		idx  int
	}{
		{"subject_id", cols.subjectID},
		{"event_type", cols.eventType},
	} {
		if req.idx < 0 {
			return cols, fmt.Errorf("events: header is missing column %q", req.name)
		}
	}
	return cols, nil
}

func (c columns) parse(record []string, line int) (EventRecord, error) {
	subjectID := record[c.subjectID]
	if subjectID == "" {
		return EventRecord{}, fmt.Errorf("events: row %d has no subject_id", line)
	}
	eventType := record[c.eventType]
	if eventType == "" {
		return EventRecord{}, fmt.Errorf("events: row %d has no event_type", line)
	}

	var rawSegment string
	if c.segment >= 0 {
		rawSegment = record[c.segment]
	}
	segment, err := models.ParseSegment(rawSegment)
	if err != nil {
		return EventRecord{}, fmt.Errorf("events: row %d: %w", line, err)
	}

	var atMS int64
	if c.atMS >= 0 && record[c.atMS] != "" {
		atMS, err = strconv.ParseInt(record[c.atMS], 10, 64)
		if err != nil {
			return EventRecord{}, fmt.Errorf("events: row %d has invalid at_ms %q", line, record[c.atMS])
		}
		if atMS < 0 {
			return EventRecord{}, fmt.Errorf("events: row %d has negative at_ms", line)
		}
	}

	return EventRecord{
		SubjectID: subjectID,
		Segment:   segment,
		EventType: eventType,
		AtMS:      atMS,
	}, nil
}

// LoadEvents reads a recorded event stream from a CSV file with columns
// subject_id, segment, event_type, at_ms. The segment column may be empty.
func LoadEvents(path string) ([]EventRecord, error) {
	return loadEvents(path, 1, math.MaxInt)
}

// LoadEventsRange reads a slice of the event stream, rows [start, end]
// (1-based, inclusive). Row 1 is the first data row after the header, and
// end is clamped to the rows available.
func LoadEventsRange(path string, start, end int) ([]EventRecord, error) {
	if start < 1 {
		return nil, fmt.Errorf("events: range start must be >= 1, got %d", start)
	}
	if end < start {
		return nil, fmt.Errorf("events: range end (%d) must be >= start (%d)", end, start)
	}
	return loadEvents(path, start, end)
}

func loadEvents(path string, start, end int) ([]EventRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("events: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("events: %s is empty (no header row)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("events: parse %s: %w", path, err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	records := []EventRecord{}
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("events: parse %s: %w", path, err)
		}
		if row < start {
			continue
		}
		if row > end {
			break
		}
		rec, err := cols.parse(record, row+1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Segments extracts the per-subject segment table from an event stream, for
// seeding an identity resolver. The first record for a subject wins.
func Segments(records []EventRecord) map[string]models.Segment {
	out := make(map[string]models.Segment)
	for _, r := range records {
		if _, ok := out[r.SubjectID]; !ok {
			out[r.SubjectID] = r.Segment
		}
	}
	return out
}
