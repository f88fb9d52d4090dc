package sequence

import (
	"time"

	"github.com/sadopc/gesturekeeper/internal/events"
	"github.com/sadopc/gesturekeeper/internal/ident"
	"github.com/sadopc/gesturekeeper/internal/surface"
)

// Recorder builds a step list from discrete clicks. A swipe takes two
// clicks: origin, then target.
type Recorder struct {
	clock func() time.Time
	bus   *events.Bus
	scope surface.Scope

	recording bool
	action    Action
	steps     []Step
	origin    *Position
}

// Option configures a Recorder.
type Option func(*Recorder)

func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) { r.clock = clock }
}

func WithBus(b *events.Bus) Option {
	return func(r *Recorder) { r.bus = b }
}

// WithScope sets where clicks are accepted. The default accepts nothing
// until a scope is set.
func WithScope(s surface.Scope) Option {
	return func(r *Recorder) { r.scope = s }
}

func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		clock:  time.Now,
		action: Tap,
		scope:  surface.Bounded{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetScope switches between the bounded canvas and the floating (viewport)
// capture. Steps already recorded are kept.
func (r *Recorder) SetScope(s surface.Scope) { r.scope = s }

func (r *Recorder) Scope() surface.Scope { return r.scope }

// Start clears the step list and accepts clicks.
func (r *Recorder) Start() {
	r.recording = true
	r.steps = nil
	r.origin = nil
}

// Stop stops accepting clicks. Recorded steps are kept for saving.
func (r *Recorder) Stop() {
	r.recording = false
	r.origin = nil
}

func (r *Recorder) Recording() bool { return r.recording }

func (r *Recorder) Action() Action { return r.action }

// SetAction selects the action for the next click and drops a half-made
// swipe.
func (r *Recorder) SetAction(a Action) {
	if !a.Valid() {
		return
	}
	r.action = a
	r.origin = nil
}

// PendingOrigin is the first click of an unfinished swipe, if any.
func (r *Recorder) PendingOrigin() (Position, bool) {
	if r.origin == nil {
		return Position{}, false
	}
	return *r.origin, true
}

// Click handles a click in screen coordinates. It reports whether the click
// landed on the capture surface while recording.
func (r *Recorder) Click(x, y int) bool {
	if !r.recording {
		return false
	}
	rx, ry, ok := r.scope.Locate(x, y)
	if !ok {
		return false
	}
	r.AddPointAt(float64(rx), float64(ry))
	return true
}

// AddPointAt adds a point in surface coordinates. Taps and double taps
// append a step at once; swipes append on the second point.
func (r *Recorder) AddPointAt(x, y float64) {
	p := Position{X: x, Y: y}
	if r.action != Swipe {
		r.steps = append(r.steps, Step{
			ID:       ident.New("step"),
			Type:     r.action,
			Position: p,
		})
		return
	}
	if r.origin == nil {
		r.origin = &p
		return
	}
	target := p
	r.steps = append(r.steps, Step{
		ID:             ident.New("step"),
		Type:           Swipe,
		Position:       *r.origin,
		TargetPosition: &target,
	})
	r.origin = nil
}

// Steps returns a copy of the current step list.
func (r *Recorder) Steps() []Step {
	return append([]Step(nil), r.steps...)
}

// RemoveStep deletes a step by id. Unknown ids are ignored.
func (r *Recorder) RemoveStep(id string) {
	kept := r.steps[:0]
	for _, s := range r.steps {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	r.steps = kept
}

// SetDelay sets how long playback dwells on a step. Negative ms clears the
// delay back to the default.
func (r *Recorder) SetDelay(id string, ms int) error {
	for i := range r.steps {
		if r.steps[i].ID != id {
			continue
		}
		if ms < 0 {
			r.steps[i].Delay = nil
			return nil
		}
		d := ms
		r.steps[i].Delay = &d
		return nil
	}
	return ErrUnknownStep
}

// CanSave mirrors the save button: enabled with a name and at least one step.
func (r *Recorder) CanSave(name string) bool {
	return name != "" && len(r.steps) > 0
}

// Save materialises the step list as a Record and publishes it. The step
// list is left untouched so a failed publish can be retried.
func (r *Recorder) Save(name string, timerEnabled bool, timerDelay int) (Record, error) {
	if len(r.steps) == 0 {
		return Record{}, ErrNoSteps
	}
	if name == "" {
		return Record{}, ErrNameRequired
	}
	if timerEnabled && timerDelay < 1 {
		return Record{}, ErrInvalidTimerDelay
	}

	rec := Record{
		ID:           ident.New("sequence"),
		Name:         name,
		Steps:        r.Steps(),
		TimerEnabled: timerEnabled,
		CreatedAt:    r.clock().UTC().Truncate(time.Millisecond),
	}
	if timerEnabled {
		d := timerDelay
		rec.TimerDelay = &d
	}

	if r.bus != nil {
		if err := r.bus.Publish(Recorded{Record: rec}); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// Reset drops everything, as when the authoring surface is closed.
func (r *Recorder) Reset() {
	r.recording = false
	r.steps = nil
	r.origin = nil
	r.action = Tap
}
