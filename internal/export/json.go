package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/gesturekeeper/internal/gesture"
	"github.com/sadopc/gesturekeeper/internal/sequence"
)

// jsonExport wraps both collections in the same shape they are stored in,
// so an export can be pasted back into local storage.
type jsonExport struct {
	ExportedAt    string            `json:"exported_at"`
	GestureCount  int               `json:"gesture_count"`
	SequenceCount int               `json:"sequence_count"`
	Gestures      []gesture.Record  `json:"gestures"`
	Sequences     []sequence.Record `json:"sequences"`
}

func ToJSON(gestures []gesture.Record, seqs []sequence.Record, path string) error {
	if gestures == nil {
		gestures = []gesture.Record{}
	}
	if seqs == nil {
		seqs = []sequence.Record{}
	}
	export := jsonExport{
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		GestureCount:  len(gestures),
		SequenceCount: len(seqs),
		Gestures:      gestures,
		Sequences:     seqs,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
