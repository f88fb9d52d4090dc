package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sadopc/gesturekeeper/internal/gesture"
	"github.com/sadopc/gesturekeeper/internal/sequence"
)

func sampleData() ([]gesture.Record, []sequence.Record) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	delay := 1500
	timer := 3

	var pts []gesture.Point
	for i := 0; i < 12; i++ {
		pts = append(pts, gesture.Point{X: float64(i), Y: float64(i * 2), Timestamp: 1714564800000 + int64(i*16)})
	}
	gestures := []gesture.Record{
		{ID: "gesture-1", Name: "Ghost Delete Gesture", Points: pts, CreatedAt: created},
	}

	seqs := []sequence.Record{
		{
			ID:   "sequence-1",
			Name: "Unlock",
			Steps: []sequence.Step{
				{ID: "step-1", Type: sequence.Tap, Position: sequence.Position{X: 10, Y: 20}},
				{ID: "step-2", Type: sequence.Swipe, Position: sequence.Position{X: 1.5, Y: 2}, TargetPosition: &sequence.Position{X: 30, Y: 40}, Delay: &delay},
			},
			TimerEnabled: true,
			TimerDelay:   &timer,
			CreatedAt:    created,
		},
		{
			ID:        "sequence-2",
			Name:      `Seq "quoted", comma`,
			Steps:     []sequence.Step{{ID: "step-3", Type: sequence.DoubleTap, Position: sequence.Position{X: 5, Y: 5}}},
			CreatedAt: created,
		},
	}
	return gestures, seqs
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	_, seqs := sampleData()
	path := filepath.Join(t.TempDir(), "steps.csv")

	if err := ToCSV(seqs, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	records := readCSV(t, path)

	// header + 3 steps
	if len(records) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(records))
	}
	if !reflect.DeepEqual(records[0], sequenceHeader) {
		t.Fatalf("header = %v", records[0])
	}

	tap := records[1]
	if tap[0] != "sequence-1" || tap[2] != "1" || tap[3] != "tap" || tap[4] != "10" || tap[5] != "20" {
		t.Fatalf("tap row = %v", tap)
	}
	if tap[6] != "" || tap[7] != "" || tap[8] != "" {
		t.Fatalf("tap should have no target or delay: %v", tap)
	}

	swipe := records[2]
	if swipe[3] != "swipe" || swipe[4] != "1.5" || swipe[6] != "30" || swipe[7] != "40" || swipe[8] != "1500" {
		t.Fatalf("swipe row = %v", swipe)
	}

	if records[3][1] != `Seq "quoted", comma` {
		t.Fatalf("name mangled: %q", records[3][1])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestGesturesToCSV(t *testing.T) {
	gestures, _ := sampleData()
	path := filepath.Join(t.TempDir(), "gestures.csv")
	if err := GesturesToCSV(gestures, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("rows = %d", len(records))
	}
	row := records[1]
	if row[0] != "gesture-1" || row[3] != "12" || row[4] != "176" {
		t.Fatalf("row = %v", row)
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	gestures, seqs := sampleData()
	path := filepath.Join(t.TempDir(), "export.json")

	if err := ToJSON(gestures, seqs, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}
	if result.GestureCount != 1 || result.SequenceCount != 2 {
		t.Fatalf("counts = %d, %d", result.GestureCount, result.SequenceCount)
	}
	if !reflect.DeepEqual(result.Gestures, gestures) {
		t.Fatalf("gestures = %+v", result.Gestures)
	}
	if !reflect.DeepEqual(result.Sequences, seqs) {
		t.Fatalf("sequences = %+v", result.Sequences)
	}
}

func TestToJSONEmptyUsesArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var raw map[string]json.RawMessage
	json.Unmarshal(data, &raw)
	if string(raw["gestures"]) != "[]" || string(raw["sequences"]) != "[]" {
		t.Fatalf("empty export should hold empty arrays: %s", data)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}
