// Package sequence records ordered tap, double-tap and swipe steps for
// later replay.
package sequence

import (
	"errors"
	"fmt"
	"time"
)

// Topic is the bus topic carrying Recorded events.
const Topic = "sequence.recorded"

// DefaultStepDelay applies to steps saved without a delay.
const DefaultStepDelay = 1000 * time.Millisecond

var (
	ErrNameRequired      = errors.New("sequence name is required")
	ErrNoSteps           = errors.New("sequence has no steps")
	ErrInvalidTimerDelay = errors.New("timer delay must be at least one minute")
	ErrUnknownStep       = errors.New("unknown step")
	ErrInvalidDelay      = errors.New("step delay must not be negative")
)

// Action is the kind of interaction a step performs.
type Action string

const (
	Tap       Action = "tap"
	DoubleTap Action = "double-tap"
	Swipe     Action = "swipe"
)

// Actions lists the actions in toolbar order.
var Actions = []Action{Tap, DoubleTap, Swipe}

func (a Action) Label() string {
	switch a {
	case Tap:
		return "Tap"
	case DoubleTap:
		return "Double Tap"
	case Swipe:
		return "Swipe"
	}
	return string(a)
}

func (a Action) Valid() bool {
	return a == Tap || a == DoubleTap || a == Swipe
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Step is one interaction. TargetPosition is set exactly when Type is Swipe.
type Step struct {
	ID             string    `json:"id"`
	Type           Action    `json:"type"`
	Position       Position  `json:"position"`
	TargetPosition *Position `json:"targetPosition,omitempty"`
	Delay          *int      `json:"delay,omitempty"` // ms to wait while this step is active
}

// Wait is how long playback dwells on the step.
func (s Step) Wait() time.Duration {
	if s.Delay == nil {
		return DefaultStepDelay
	}
	return time.Duration(*s.Delay) * time.Millisecond
}

func (s Step) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("step %s: unknown action %q", s.ID, s.Type)
	}
	if (s.Type == Swipe) != (s.TargetPosition != nil) {
		return fmt.Errorf("step %s: swipe target must be set only for swipes", s.ID)
	}
	if s.Delay != nil && *s.Delay < 0 {
		return fmt.Errorf("step %s: %w", s.ID, ErrInvalidDelay)
	}
	return nil
}

// Record is a saved sequence. The json field for steps is "points".
type Record struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Steps        []Step    `json:"points"`
	TimerEnabled bool      `json:"timerEnabled"`
	TimerDelay   *int      `json:"timerDelay,omitempty"` // minutes
	CreatedAt    time.Time `json:"createdAt"`
}

func (r Record) RecordID() string { return r.ID }

// ArmDelay is the wait before timer-started playback, or zero when the
// sequence has no timer.
func (r Record) ArmDelay() time.Duration {
	if !r.TimerEnabled || r.TimerDelay == nil || *r.TimerDelay <= 0 {
		return 0
	}
	return time.Duration(*r.TimerDelay) * time.Minute
}

// TotalDuration is the playback length once running.
func (r Record) TotalDuration() time.Duration {
	var d time.Duration
	for _, s := range r.Steps {
		d += s.Wait()
	}
	return d
}

func (r Record) Validate() error {
	if r.Name == "" {
		return ErrNameRequired
	}
	if len(r.Steps) == 0 {
		return ErrNoSteps
	}
	if r.TimerEnabled != (r.TimerDelay != nil) {
		return fmt.Errorf("sequence %s: timer delay must be set only with the timer enabled", r.ID)
	}
	if r.TimerDelay != nil && *r.TimerDelay < 1 {
		return ErrInvalidTimerDelay
	}
	for _, s := range r.Steps {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Recorded is published when a sequence is saved.
type Recorded struct {
	Record Record
}

func (Recorded) Topic() string { return Topic }
