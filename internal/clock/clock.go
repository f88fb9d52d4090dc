// Package clock provides cancellable single-shot timers behind a small
// Scheduler interface so timer-driven state machines can run against either
// the wall clock or a simulated one.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies a scheduled callback. The zero Handle is never issued.
type Handle uint64

// Scheduler schedules single-shot callbacks.
type Scheduler interface {
	Now() time.Time
	Schedule(d time.Duration, fn func()) Handle
	// Cancel reports whether the callback was still pending.
	Cancel(h Handle) bool
}

// Real schedules callbacks on the wall clock. Fired callbacks are not run on
// the timer goroutine: they are queued on Fired() and the owner of the event
// loop runs them, so state is only ever touched from that loop.
type Real struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
	fired  chan func()
	done   chan struct{}
	once   sync.Once
}

func NewReal() *Real {
	return &Real{
		timers: make(map[Handle]*time.Timer),
		fired:  make(chan func(), 16),
		done:   make(chan struct{}),
	}
}

func (r *Real) Now() time.Time { return time.Now() }

func (r *Real) Schedule(d time.Duration, fn func()) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	r.timers[h] = time.AfterFunc(d, func() {
		select {
		case r.fired <- r.deliver(h, fn):
		case <-r.done:
		}
	})
	return h
}

// deliver wraps fn so that a cancel issued after the timer fired, but before
// the loop got to run it, still wins.
func (r *Real) deliver(h Handle, fn func()) func() {
	return func() {
		r.mu.Lock()
		_, live := r.timers[h]
		delete(r.timers, h)
		r.mu.Unlock()
		if live {
			fn()
		}
	}
}

func (r *Real) Cancel(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[h]
	if !ok {
		return false
	}
	t.Stop()
	delete(r.timers, h)
	return true
}

// Fired delivers callbacks whose delay elapsed. Run each one on the loop.
func (r *Real) Fired() <-chan func() { return r.fired }

// Stop cancels every pending timer and releases blocked deliveries.
func (r *Real) Stop() {
	r.once.Do(func() {
		r.mu.Lock()
		for h, t := range r.timers {
			t.Stop()
			delete(r.timers, h)
		}
		r.mu.Unlock()
		close(r.done)
	})
}

// Fake is a simulated clock. Time only moves through Advance, which runs due
// callbacks in deadline order on the caller's goroutine.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	next    Handle
	pending []fakeTimer
}

type fakeTimer struct {
	h  Handle
	at time.Time
	fn func()
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Schedule(d time.Duration, fn func()) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	f.pending = append(f.pending, fakeTimer{h: f.next, at: f.now.Add(d), fn: fn})
	// Stable so equal deadlines fire in scheduling order.
	sort.SliceStable(f.pending, func(i, j int) bool {
		return f.pending[i].at.Before(f.pending[j].at)
	})
	return f.next
}

func (f *Fake) Cancel(h Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.pending {
		if t.h == h {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the number of callbacks still scheduled.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Advance moves the clock forward by d, firing every callback that falls due.
// Callbacks may schedule or cancel other callbacks.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		if len(f.pending) == 0 || f.pending[0].at.After(target) {
			f.now = target
			f.mu.Unlock()
			return
		}
		t := f.pending[0]
		f.pending = f.pending[1:]
		f.now = t.at
		f.mu.Unlock()

		t.fn()
	}
}
