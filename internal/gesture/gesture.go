// Package gesture records freehand pointer paths.
package gesture

import (
	"errors"
	"time"
)

// MinPoints is the shortest path that may be kept as a gesture.
const MinPoints = 10

// Topic is the bus topic carrying Recorded events.
const Topic = "gesture.recorded"

var (
	ErrTooShort     = errors.New("gesture too short")
	ErrNotRecording = errors.New("not recording")
	ErrNoPreview    = errors.New("no gesture to save")
	ErrNameRequired = errors.New("gesture name is required")
)

// Point is one pointer sample relative to the capture surface.
type Point struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// Record is a saved gesture. Records are never edited in place.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Points    []Point   `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r Record) RecordID() string { return r.ID }

// Validate reports whether r may be persisted.
func (r Record) Validate() error {
	if len(r.Points) < MinPoints {
		return ErrTooShort
	}
	if r.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// Recorded is published when a gesture is committed.
type Recorded struct {
	Record Record
}

func (Recorded) Topic() string { return Topic }
