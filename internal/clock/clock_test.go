package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	f := NewFake(epoch)
	var got []string

	f.Schedule(300*time.Millisecond, func() { got = append(got, "c") })
	f.Schedule(100*time.Millisecond, func() { got = append(got, "a") })
	f.Schedule(200*time.Millisecond, func() { got = append(got, "b") })

	f.Advance(250 * time.Millisecond)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("after 250ms got %v", got)
	}
	if !f.Now().Equal(epoch.Add(250 * time.Millisecond)) {
		t.Fatalf("now = %v", f.Now())
	}

	f.Advance(time.Second)
	if len(got) != 3 || got[2] != "c" {
		t.Fatalf("after 1.25s got %v", got)
	}
}

func TestFakeCancel(t *testing.T) {
	f := NewFake(epoch)
	fired := false
	h := f.Schedule(time.Second, func() { fired = true })

	if !f.Cancel(h) {
		t.Fatal("first cancel should report pending")
	}
	if f.Cancel(h) {
		t.Fatal("second cancel should report not pending")
	}
	f.Advance(time.Minute)
	if fired {
		t.Fatal("cancelled callback fired")
	}
}

func TestFakeChainedSchedule(t *testing.T) {
	f := NewFake(epoch)
	var at []time.Duration

	var step func()
	step = func() {
		at = append(at, f.Now().Sub(epoch))
		if len(at) < 3 {
			f.Schedule(500*time.Millisecond, step)
		}
	}
	f.Schedule(500*time.Millisecond, step)

	f.Advance(10 * time.Second)
	want := []time.Duration{500 * time.Millisecond, time.Second, 1500 * time.Millisecond}
	if len(at) != len(want) {
		t.Fatalf("got %v, want %v", at, want)
	}
	for i := range want {
		if at[i] != want[i] {
			t.Fatalf("fire %d at %v, want %v", i, at[i], want[i])
		}
	}
	if f.Pending() != 0 {
		t.Fatalf("pending = %d", f.Pending())
	}
}

func TestRealDeliversOnChannel(t *testing.T) {
	r := NewReal()
	defer r.Stop()

	done := make(chan struct{})
	r.Schedule(5*time.Millisecond, func() { close(done) })

	select {
	case fn := <-r.Fired():
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}

	select {
	case <-done:
	default:
		t.Fatal("callback did not run when delivered")
	}
}

func TestRealCancelAfterFireSuppressesCallback(t *testing.T) {
	r := NewReal()
	defer r.Stop()

	ran := false
	h := r.Schedule(time.Millisecond, func() { ran = true })

	var fn func()
	select {
	case fn = <-r.Fired():
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}

	// Cancelled while queued: delivery must be a no-op.
	if !r.Cancel(h) {
		t.Fatal("queued callback should still count as pending")
	}
	fn()
	if ran {
		t.Fatal("cancelled callback ran")
	}
}
