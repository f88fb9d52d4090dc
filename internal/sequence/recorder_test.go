package sequence

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/gesturekeeper/internal/events"
	"github.com/sadopc/gesturekeeper/internal/surface"
)

var testNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestRecorder(opts ...Option) *Recorder {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithScope(surface.Bounded{Rect: surface.Rect{X: 2, Y: 3, Width: 60, Height: 20}}),
	}
	r := NewRecorder(append(base, opts...)...)
	r.Start()
	return r
}

// checkSwipeInvariant fails when a swipe lacks a target or a tap has one.
func checkSwipeInvariant(t *testing.T, steps []Step) {
	t.Helper()
	for _, s := range steps {
		if err := s.Validate(); err != nil {
			t.Fatalf("invalid step: %v", err)
		}
		if s.Type == Swipe && s.TargetPosition == nil {
			t.Fatalf("swipe %s without target", s.ID)
		}
		if s.Type != Swipe && s.TargetPosition != nil {
			t.Fatalf("%s %s has a target", s.Type, s.ID)
		}
	}
}

func TestTapAppendsImmediately(t *testing.T) {
	r := newTestRecorder()
	r.AddPointAt(5, 6)
	r.SetAction(DoubleTap)
	r.AddPointAt(7, 8)

	steps := r.Steps()
	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}
	if steps[0].Type != Tap || steps[0].Position != (Position{5, 6}) {
		t.Fatalf("step 0 = %+v", steps[0])
	}
	if steps[1].Type != DoubleTap || steps[1].Position != (Position{7, 8}) {
		t.Fatalf("step 1 = %+v", steps[1])
	}
	checkSwipeInvariant(t, steps)
}

func TestSwipeNeedsTwoPoints(t *testing.T) {
	r := newTestRecorder()
	r.SetAction(Swipe)

	r.AddPointAt(1, 2)
	if len(r.Steps()) != 0 {
		t.Fatal("first swipe point must not append a step")
	}
	origin, ok := r.PendingOrigin()
	if !ok || origin != (Position{1, 2}) {
		t.Fatalf("pending origin = %+v, %v", origin, ok)
	}

	r.AddPointAt(30, 4)
	steps := r.Steps()
	if len(steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(steps))
	}
	s := steps[0]
	if s.Type != Swipe || s.Position != (Position{1, 2}) || *s.TargetPosition != (Position{30, 4}) {
		t.Fatalf("swipe = %+v target %+v", s, s.TargetPosition)
	}
	if _, ok := r.PendingOrigin(); ok {
		t.Fatal("origin should be cleared after the swipe completes")
	}
	checkSwipeInvariant(t, steps)
}

func TestSetActionClearsPendingOrigin(t *testing.T) {
	r := newTestRecorder()
	r.SetAction(Swipe)
	r.AddPointAt(1, 1)
	r.SetAction(Tap)
	if _, ok := r.PendingOrigin(); ok {
		t.Fatal("switching action should drop the half-made swipe")
	}
	r.AddPointAt(2, 2)
	steps := r.Steps()
	if len(steps) != 1 || steps[0].Type != Tap {
		t.Fatalf("steps = %+v", steps)
	}
}

func TestSetActionIgnoresUnknown(t *testing.T) {
	r := newTestRecorder()
	r.SetAction("pinch")
	if r.Action() != Tap {
		t.Fatalf("action = %q", r.Action())
	}
}

func TestClickBoundedScope(t *testing.T) {
	r := newTestRecorder()

	if !r.Click(12, 8) {
		t.Fatal("click inside canvas dropped")
	}
	if r.Click(0, 0) {
		t.Fatal("click outside canvas kept")
	}
	steps := r.Steps()
	if len(steps) != 1 || steps[0].Position != (Position{10, 5}) {
		t.Fatalf("steps = %+v", steps)
	}
}

func TestClickIgnoredWhenNotRecording(t *testing.T) {
	r := newTestRecorder()
	r.Stop()
	if r.Click(12, 8) {
		t.Fatal("click accepted while stopped")
	}
}

func TestClickViewportScopeExcludesToolbar(t *testing.T) {
	toolbar := surface.Rect{X: 70, Y: 2, Width: 8, Height: 4}
	r := newTestRecorder(WithScope(surface.Viewport{Width: 80, Height: 24, Exclude: []surface.Rect{toolbar}}))

	if r.Click(72, 3) {
		t.Fatal("click on the toolbar must not add a step")
	}
	if !r.Click(0, 0) || !r.Click(79, 23) {
		t.Fatal("viewport clicks dropped")
	}
	if r.Click(80, 5) {
		t.Fatal("click past the viewport kept")
	}
	steps := r.Steps()
	if len(steps) != 2 || steps[1].Position != (Position{79, 23}) {
		t.Fatalf("steps = %+v", steps)
	}
}

func TestStartClearsSteps(t *testing.T) {
	r := newTestRecorder()
	r.AddPointAt(1, 1)
	r.Start()
	if len(r.Steps()) != 0 {
		t.Fatal("start should clear previous steps")
	}
}

func TestRemoveStepByID(t *testing.T) {
	r := newTestRecorder()
	r.AddPointAt(1, 1)
	r.AddPointAt(2, 2)
	r.AddPointAt(3, 3)
	steps := r.Steps()

	r.RemoveStep(steps[1].ID)
	got := r.Steps()
	if len(got) != 2 || got[0].ID != steps[0].ID || got[1].ID != steps[2].ID {
		t.Fatalf("after remove: %+v", got)
	}

	r.RemoveStep("step-missing")
	if len(r.Steps()) != 2 {
		t.Fatal("removing an unknown id should be a no-op")
	}
}

func TestStepIDsUnique(t *testing.T) {
	r := newTestRecorder()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		r.AddPointAt(float64(i), 0)
	}
	for _, s := range r.Steps() {
		if seen[s.ID] {
			t.Fatalf("duplicate id %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestSetDelay(t *testing.T) {
	r := newTestRecorder()
	r.AddPointAt(1, 1)
	id := r.Steps()[0].ID

	if err := r.SetDelay(id, 250); err != nil {
		t.Fatal(err)
	}
	if got := r.Steps()[0].Wait(); got != 250*time.Millisecond {
		t.Fatalf("wait = %v", got)
	}
	if err := r.SetDelay(id, -1); err != nil {
		t.Fatal(err)
	}
	if got := r.Steps()[0].Wait(); got != DefaultStepDelay {
		t.Fatalf("wait after clear = %v", got)
	}
	if err := r.SetDelay("nope", 1); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("err = %v", err)
	}
}

func TestSaveValidation(t *testing.T) {
	r := newTestRecorder()
	if r.CanSave("x") {
		t.Fatal("cannot save without steps")
	}
	if _, err := r.Save("x", false, 0); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("err = %v", err)
	}

	r.AddPointAt(1, 1)
	if r.CanSave("") {
		t.Fatal("cannot save without a name")
	}
	if _, err := r.Save("", false, 0); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("err = %v", err)
	}
	if _, err := r.Save("x", true, 0); !errors.Is(err, ErrInvalidTimerDelay) {
		t.Fatalf("err = %v", err)
	}
}

func TestSaveBuildsRecord(t *testing.T) {
	r := newTestRecorder()
	r.AddPointAt(1, 1)
	r.SetAction(Swipe)
	r.AddPointAt(2, 2)
	r.AddPointAt(9, 9)

	rec, err := r.Save("Morning unlock", false, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(rec.ID, "sequence-") {
		t.Fatalf("id = %q", rec.ID)
	}
	if len(rec.Steps) != 2 || rec.Name != "Morning unlock" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.TimerEnabled || rec.TimerDelay != nil {
		t.Fatal("timer delay must be absent when the timer is off")
	}
	if !rec.CreatedAt.Equal(testNow) {
		t.Fatalf("createdAt = %v", rec.CreatedAt)
	}
	if err := rec.Validate(); err != nil {
		t.Fatal(err)
	}
	checkSwipeInvariant(t, rec.Steps)

	timed, err := r.Save("Timed", true, 3)
	if err != nil {
		t.Fatal(err)
	}
	if timed.TimerDelay == nil || *timed.TimerDelay != 3 {
		t.Fatalf("timer delay = %v", timed.TimerDelay)
	}
	if timed.ArmDelay() != 3*time.Minute {
		t.Fatalf("arm delay = %v", timed.ArmDelay())
	}
}

func TestSavePublishes(t *testing.T) {
	bus := events.NewBus(nil)
	var got []Record
	events.On(bus, Topic, func(e Recorded) error {
		got = append(got, e.Record)
		return nil
	})

	r := newTestRecorder(WithBus(bus))
	r.AddPointAt(4, 4)
	rec, err := r.Save("s", false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != rec.ID {
		t.Fatalf("published %+v", got)
	}
}

func TestRecordValidate(t *testing.T) {
	five := 5
	target := Position{1, 1}
	cases := []struct {
		name string
		rec  Record
		ok   bool
	}{
		{"valid", Record{Name: "a", Steps: []Step{{ID: "1", Type: Tap}}}, true},
		{"no name", Record{Steps: []Step{{ID: "1", Type: Tap}}}, false},
		{"no steps", Record{Name: "a"}, false},
		{"swipe without target", Record{Name: "a", Steps: []Step{{ID: "1", Type: Swipe}}}, false},
		{"tap with target", Record{Name: "a", Steps: []Step{{ID: "1", Type: Tap, TargetPosition: &target}}}, false},
		{"timer delay without timer", Record{Name: "a", Steps: []Step{{ID: "1", Type: Tap}}, TimerDelay: &five}, false},
		{"timer without delay", Record{Name: "a", Steps: []Step{{ID: "1", Type: Tap}}, TimerEnabled: true}, false},
		{"timed", Record{Name: "a", Steps: []Step{{ID: "1", Type: Tap}}, TimerEnabled: true, TimerDelay: &five}, true},
	}
	for _, tc := range cases {
		err := tc.rec.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestTotalDuration(t *testing.T) {
	d := 500
	rec := Record{Steps: []Step{{Type: Tap}, {Type: Tap, Delay: &d}}}
	if got := rec.TotalDuration(); got != 1500*time.Millisecond {
		t.Fatalf("total = %v", got)
	}
}
