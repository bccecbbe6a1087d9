package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spboyer/splitlab/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const sampleEvents = `subject_id,segment,event_type,at_ms
u1,analytical,hero_view,0
u1,analytical,pricing_view,1500
u1,analytical,conversion,4000
u2,creative,hero_view,200
u2,creative,cta_hover,900
u3,,hero_view,50
`

func TestLoadEvents(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "events.csv", sampleEvents)

	records, err := LoadEvents(path)
	require.NoError(t, err)
	require.Len(t, records, 6)

	assert.Equal(t, EventRecord{
		SubjectID: "u1",
		Segment:   models.SegmentAnalytical,
		EventType: "hero_view",
		AtMS:      0,
	}, records[0])

	assert.True(t, records[2].IsConversion())
	assert.EqualValues(t, 4000, records[2].AtMS)

	// An empty segment column falls back to the default segment.
	assert.Equal(t, models.DefaultSegment, records[5].Segment)
}

func TestLoadEvents_Invalid(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{
			name: "missing subject_id",
			csv:  "subject_id,segment,event_type,at_ms\n,analytical,hero_view,0\n",
			want: "no subject_id",
		},
		{
			name: "missing event_type",
			csv:  "subject_id,segment,event_type,at_ms\nu1,analytical,,0\n",
			want: "no event_type",
		},
		{
			name: "unknown segment",
			csv:  "subject_id,segment,event_type,at_ms\nu1,impulsive,hero_view,0\n",
			want: "row 2",
		},
		{
			name: "bad at_ms",
			csv:  "subject_id,segment,event_type,at_ms\nu1,analytical,hero_view,soon\n",
			want: "invalid at_ms",
		},
		{
			name: "negative at_ms",
			csv:  "subject_id,segment,event_type,at_ms\nu1,analytical,hero_view,-5\n",
			want: "negative at_ms",
		},
		{
			name: "missing subject_id column",
			csv:  "segment,event_type,at_ms\nanalytical,hero_view,0\n",
			want: `missing column "subject_id"`,
		},
		{
			name: "missing event_type column",
			csv:  "subject_id,segment,at_ms\nu1,analytical,0\n",
			want: `missing column "event_type"`,
		},
		{
			name: "ragged row",
			csv:  "subject_id,segment,event_type,at_ms\nu1,analytical,hero_view,0\nu2\n",
			want: "wrong number of fields",
		},
		{
			name: "empty file",
			csv:  "",
			want: "no header row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeCSV(t, dir, "events.csv", tt.csv)

			_, err := LoadEvents(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEvents_MissingFile(t *testing.T) {
	_, err := LoadEvents("/nonexistent/path/events.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events: open")
}

func TestLoadEventsRange(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "events.csv", sampleEvents)

	records, err := LoadEventsRange(path, 4, 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "u2", records[0].SubjectID)
	assert.Equal(t, "cta_hover", records[1].EventType)
}

func TestLoadEventsRange_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		end      int
		wantRows int
		wantErr  string
	}{
		{name: "single row", start: 1, end: 1, wantRows: 1},
		{name: "end clamps to available rows", start: 5, end: 100, wantRows: 2},
		{name: "start beyond available returns empty", start: 50, end: 60, wantRows: 0},
		{name: "start below 1", start: 0, end: 1, wantErr: "range start must be >= 1"},
		{name: "end before start", start: 3, end: 1, wantErr: "range end (1) must be >= start (3)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeCSV(t, dir, "events.csv", sampleEvents)

			records, err := LoadEventsRange(path, tt.start, tt.end)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.wantRows)
		})
	}
}

func TestSegments(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "events.csv", sampleEvents)

	records, err := LoadEvents(path)
	require.NoError(t, err)

	segments := Segments(records)
	assert.Equal(t, map[string]models.Segment{
		"u1": models.SegmentAnalytical,
		"u2": models.SegmentCreative,
		"u3": models.DefaultSegment,
	}, segments)
}
