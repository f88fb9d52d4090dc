package gesture

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/gesturekeeper/internal/events"
	"github.com/sadopc/gesturekeeper/internal/surface"
)

// stepClock returns a clock that moves forward by tick on every call.
func stepClock(start time.Time, tick time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(tick)
		return now
	}
}

func newTestRecorder(opts ...Option) *Recorder {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(stepClock(start, 7*time.Millisecond))}, opts...)
	r := NewRecorder(opts...)
	r.SetBounds(surface.Rect{X: 10, Y: 5, Width: 40, Height: 20})
	return r
}

func draw(r *Recorder, n int) {
	for i := 0; i < n; i++ {
		r.Sample(10+i%40, 5+i%20)
	}
}

func TestSampleIgnoredWhenIdle(t *testing.T) {
	r := newTestRecorder()
	if r.Sample(12, 6) {
		t.Fatal("sample kept while idle")
	}
	if len(r.Points()) != 0 {
		t.Fatal("buffer should be empty")
	}
}

func TestSampleRelativeToBounds(t *testing.T) {
	r := newTestRecorder()
	r.Start()

	if !r.Sample(13, 9) {
		t.Fatal("sample inside bounds dropped")
	}
	if r.Sample(9, 9) || r.Sample(50, 9) || r.Sample(13, 25) {
		t.Fatal("sample outside bounds kept")
	}

	pts := r.Points()
	if len(pts) != 1 {
		t.Fatalf("points = %d, want 1", len(pts))
	}
	if pts[0].X != 3 || pts[0].Y != 4 {
		t.Fatalf("point = %+v, want (3,4)", pts[0])
	}
	if pts[0].Timestamp == 0 {
		t.Fatal("timestamp not set")
	}
}

func TestDuplicateSamplesRetained(t *testing.T) {
	r := newTestRecorder()
	r.Start()
	r.Sample(15, 6)
	r.Sample(15, 6)
	if len(r.Points()) != 2 {
		t.Fatalf("points = %d, want 2", len(r.Points()))
	}
}

func TestStopRejectsShortGesture(t *testing.T) {
	for _, n := range []int{0, 1, MinPoints - 1} {
		r := newTestRecorder()
		r.Start()
		draw(r, n)

		if err := r.Stop(); !errors.Is(err, ErrTooShort) {
			t.Fatalf("n=%d: err = %v, want ErrTooShort", n, err)
		}
		if len(r.Points()) != 0 {
			t.Fatalf("n=%d: buffer not discarded", n)
		}
		r.Discard()
		if r.State() != Idle || len(r.Points()) != 0 {
			t.Fatalf("n=%d: discard left state %v with %d points", n, r.State(), len(r.Points()))
		}
	}
}

func TestStopWhenNotRecording(t *testing.T) {
	r := newTestRecorder()
	if err := r.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("err = %v", err)
	}
}

func TestRedrawAfterTooShort(t *testing.T) {
	r := newTestRecorder()
	r.Start()
	draw(r, 3)
	r.Stop()

	if r.State() != Recording {
		t.Fatalf("state = %v, want recording", r.State())
	}
	draw(r, MinPoints)
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if r.State() != Preview {
		t.Fatalf("state = %v, want preview", r.State())
	}
}

func TestCommitProducesRecord(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := NewRecorder(WithClock(stepClock(start, 3*time.Millisecond)))
	r.SetBounds(surface.Rect{Width: 80, Height: 24})

	r.Start()
	draw(r, 12)
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	rec, err := r.Commit("Ghost Delete Gesture")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Points) < MinPoints {
		t.Fatalf("points = %d", len(rec.Points))
	}
	if !strings.HasPrefix(rec.ID, "gesture-") {
		t.Fatalf("id = %q", rec.ID)
	}
	if !rec.CreatedAt.After(start) {
		t.Fatalf("createdAt %v not after session start", rec.CreatedAt)
	}
	if _, err := time.Parse(time.RFC3339Nano, rec.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		t.Fatalf("createdAt is not ISO-8601: %v", err)
	}
	if r.State() != Idle || len(r.Points()) != 0 {
		t.Fatal("recorder should be idle and empty after commit")
	}
}

func TestCommitCreatedAtAfterStartOnFrozenClock(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := NewRecorder(WithClock(func() time.Time { return frozen }))
	r.SetBounds(surface.Rect{Width: 80, Height: 24})
	r.Start()
	draw(r, MinPoints)
	r.Stop()

	rec, err := r.Commit("g")
	if err != nil {
		t.Fatal(err)
	}
	if !rec.CreatedAt.After(frozen) {
		t.Fatalf("createdAt %v must be after %v", rec.CreatedAt, frozen)
	}
}

func TestCommitRequiresPreview(t *testing.T) {
	r := newTestRecorder()
	if _, err := r.Commit("x"); !errors.Is(err, ErrNoPreview) {
		t.Fatalf("err = %v", err)
	}
	r.Start()
	draw(r, MinPoints)
	if _, err := r.Commit("x"); !errors.Is(err, ErrNoPreview) {
		t.Fatalf("commit while recording: err = %v", err)
	}
}

func TestCommitPublishesOnBus(t *testing.T) {
	bus := events.NewBus(nil)
	var got []Record
	events.On(bus, Topic, func(e Recorded) error {
		got = append(got, e.Record)
		return nil
	})

	r := newTestRecorder(WithBus(bus))
	r.Start()
	draw(r, MinPoints)
	r.Stop()
	rec, err := r.Commit("Custom Gesture")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != rec.ID {
		t.Fatalf("published %v", got)
	}
}

func TestCommitKeepsPreviewWhenPublishFails(t *testing.T) {
	bus := events.NewBus(nil)
	fail := true
	var saved []Record
	events.On(bus, Topic, func(e Recorded) error {
		if fail {
			return errors.New("disk full")
		}
		saved = append(saved, e.Record)
		return nil
	})

	r := newTestRecorder(WithBus(bus))
	r.Start()
	draw(r, MinPoints)
	r.Stop()

	if _, err := r.Commit("Custom Gesture"); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("err = %v, want disk full", err)
	}
	if r.State() != Preview || len(r.Points()) != MinPoints {
		t.Fatalf("state = %v points = %d, want preview kept", r.State(), len(r.Points()))
	}

	fail = false
	if _, err := r.Commit("Custom Gesture"); err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if len(saved) != 1 || len(saved[0].Points) != MinPoints {
		t.Fatalf("saved = %v", saved)
	}
	if r.State() != Idle {
		t.Fatalf("state = %v, want idle after commit", r.State())
	}
}

func TestRetryClearsPreview(t *testing.T) {
	r := newTestRecorder()
	r.Start()
	draw(r, MinPoints)
	r.Stop()
	r.Retry()
	if r.State() != Idle || len(r.Points()) != 0 {
		t.Fatal("retry should return to idle with empty buffer")
	}
}

func TestFeatureGestureName(t *testing.T) {
	f, ok := FeatureByID("ghost-delete")
	if !ok {
		t.Fatal("ghost-delete missing from catalog")
	}
	if f.GestureName() != "Ghost Delete Gesture" {
		t.Fatalf("name = %q", f.GestureName())
	}
	if _, ok := FeatureByID("nope"); ok {
		t.Fatal("unknown feature found")
	}
	if len(Features()) != 5 {
		t.Fatalf("catalog size = %d", len(Features()))
	}
}
