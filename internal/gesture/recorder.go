package gesture

import (
	"time"

	"github.com/sadopc/gesturekeeper/internal/events"
	"github.com/sadopc/gesturekeeper/internal/ident"
	"github.com/sadopc/gesturekeeper/internal/surface"
)

// State is the recorder's phase.
type State int

const (
	Idle State = iota
	Recording
	Preview
)

var stateNames = map[State]string{
	Idle:      "idle",
	Recording: "recording",
	Preview:   "preview",
}

func (s State) String() string { return stateNames[s] }

// Recorder captures a single pointer path.
type Recorder struct {
	clock  func() time.Time
	bus    *events.Bus
	bounds surface.Rect

	state     State
	buffer    []Point
	preview   []Point
	startedAt time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) { r.clock = clock }
}

// WithBus publishes Recorded events on commit.
func WithBus(b *events.Bus) Option {
	return func(r *Recorder) { r.bus = b }
}

func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{clock: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetBounds sets the capture surface rectangle. Samples are stored relative
// to its origin.
func (r *Recorder) SetBounds(b surface.Rect) { r.bounds = b }

func (r *Recorder) Bounds() surface.Rect { return r.bounds }

func (r *Recorder) State() State { return r.state }

// Start clears any buffered path and begins recording.
func (r *Recorder) Start() {
	r.buffer = nil
	r.preview = nil
	r.state = Recording
	r.startedAt = r.clock()
}

// Sample appends a pointer position given in screen coordinates. It reports
// whether the sample was kept: nothing is kept outside Recording or outside
// the surface.
func (r *Recorder) Sample(x, y int) bool {
	if r.state != Recording {
		return false
	}
	rx, ry, ok := surface.Bounded{Rect: r.bounds}.Locate(x, y)
	if !ok {
		return false
	}
	r.buffer = append(r.buffer, Point{
		X:         float64(rx),
		Y:         float64(ry),
		Timestamp: r.clock().UnixMilli(),
	})
	return true
}

// Stop ends the stroke. A path shorter than MinPoints is dropped and
// ErrTooShort returned; the recorder stays armed so the user can draw again.
func (r *Recorder) Stop() error {
	if r.state != Recording {
		return ErrNotRecording
	}
	if len(r.buffer) < MinPoints {
		r.buffer = nil
		return ErrTooShort
	}
	r.preview = append([]Point(nil), r.buffer...)
	r.buffer = nil
	r.state = Preview
	return nil
}

// Points returns the path being drawn, or the preview once stopped.
func (r *Recorder) Points() []Point {
	if r.state == Preview {
		return r.preview
	}
	return r.buffer
}

// Commit turns the preview into a Record and publishes it.
func (r *Recorder) Commit(name string) (Record, error) {
	if r.state != Preview {
		return Record{}, ErrNoPreview
	}
	if name == "" {
		return Record{}, ErrNameRequired
	}

	now := r.clock().UTC().Truncate(time.Millisecond)
	if !now.After(r.startedAt) {
		// Sub-millisecond sessions still need createdAt after the start.
		now = r.startedAt.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	rec := Record{
		ID:        ident.New("gesture"),
		Name:      name,
		Points:    append([]Point(nil), r.preview...),
		CreatedAt: now,
	}
	// A failed publish keeps the preview so the caller can commit again.
	if r.bus != nil {
		if err := r.bus.Publish(Recorded{Record: rec}); err != nil {
			return rec, err
		}
	}
	r.reset()
	return rec, nil
}

// Discard drops whatever was captured and returns to Idle.
func (r *Recorder) Discard() { r.reset() }

// Retry is Discard under the name the review screen uses.
func (r *Recorder) Retry() { r.reset() }

func (r *Recorder) reset() {
	r.buffer = nil
	r.preview = nil
	r.state = Idle
}
