// Package playback replays a recorded sequence step by step. Playback is
// simulated: it only reports which step is active.
package playback

import (
	"errors"
	"log/slog"

	"github.com/sadopc/gesturekeeper/internal/clock"
	"github.com/sadopc/gesturekeeper/internal/sequence"
)

// State is the player's phase. Complete is transient and always folds back
// to Idle.
type State int

const (
	Idle State = iota
	Armed
	Running
	Complete
)

var stateNames = map[State]string{
	Idle:     "idle",
	Armed:    "armed",
	Running:  "running",
	Complete: "complete",
}

func (s State) String() string { return stateNames[s] }

var (
	ErrNoSequence    = errors.New("no sequence loaded")
	ErrTimerDisabled = errors.New("sequence has no timer")
)

// Snapshot is what observers see after every transition. Index is -1 when no
// step is active.
type Snapshot struct {
	State      State
	Index      int
	Step       *sequence.Step
	SequenceID string
}

// Player steps through one sequence at a time. At most one transition is
// pending at any moment.
type Player struct {
	sched     clock.Scheduler
	log       *slog.Logger
	observers []func(Snapshot)

	seq     *sequence.Record
	state   State
	index   int
	pending clock.Handle
}

// Option configures a Player.
type Option func(*Player)

// WithObserver registers fn for every state change.
func WithObserver(fn func(Snapshot)) Option {
	return func(p *Player) { p.observers = append(p.observers, fn) }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.log = l }
}

func New(sched clock.Scheduler, opts ...Option) *Player {
	p := &Player{sched: sched, log: slog.Default(), index: -1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open closes the current session, loads seq and arms it when the sequence
// carries a timer.
func (p *Player) Open(seq sequence.Record) {
	p.Close()
	p.seq = &seq
	p.log.Info("sequence opened", "sequence", seq.ID, "steps", len(seq.Steps), "timer", seq.TimerEnabled)
	if seq.ArmDelay() > 0 {
		_ = p.Arm()
	}
}

// Arm schedules a single deferred start after the sequence's timer delay,
// replacing any pending transition.
func (p *Player) Arm() error {
	if p.seq == nil {
		return ErrNoSequence
	}
	delay := p.seq.ArmDelay()
	if delay <= 0 {
		return ErrTimerDisabled
	}
	p.cancelPending()
	p.index = -1
	p.state = Armed
	p.pending = p.sched.Schedule(delay, func() {
		p.pending = 0
		p.run(0)
	})
	p.log.Info("sequence armed", "sequence", p.seq.ID, "delay", delay)
	p.notify()
	return nil
}

// TogglePlay starts playback from the first step, or stops it when running.
// A pending timer start is cancelled either way.
func (p *Player) TogglePlay() error {
	if p.seq == nil {
		return ErrNoSequence
	}
	if p.state == Running {
		p.Stop()
		return nil
	}
	p.cancelPending()
	p.run(0)
	return nil
}

// Stop halts playback or disarms, keeping the sequence loaded.
func (p *Player) Stop() {
	if p.state == Idle && p.pending == 0 {
		return
	}
	p.cancelPending()
	p.state = Idle
	p.index = -1
	p.notify()
}

// Close stops and unloads. Closing an armed player cancels the deferred start
// with no other effect.
func (p *Player) Close() {
	if p.seq == nil {
		return
	}
	p.Stop()
	p.log.Info("sequence closed", "sequence", p.seq.ID)
	p.seq = nil
}

func (p *Player) run(i int) {
	if p.seq == nil {
		return
	}
	if i >= len(p.seq.Steps) {
		p.complete()
		return
	}
	p.state = Running
	p.index = i
	p.notify()

	p.pending = p.sched.Schedule(p.seq.Steps[i].Wait(), func() {
		p.pending = 0
		p.run(i + 1)
	})
}

func (p *Player) complete() {
	p.state = Complete
	p.index = -1
	p.notify()
	p.log.Info("sequence complete", "sequence", p.seq.ID)

	p.state = Idle
	p.notify()
}

func (p *Player) cancelPending() {
	if p.pending != 0 {
		p.sched.Cancel(p.pending)
		p.pending = 0
	}
}

func (p *Player) notify() {
	snap := p.Snapshot()
	for _, fn := range p.observers {
		fn(snap)
	}
}

func (p *Player) State() State { return p.state }

// Sequence returns the loaded sequence.
func (p *Player) Sequence() (sequence.Record, bool) {
	if p.seq == nil {
		return sequence.Record{}, false
	}
	return *p.seq, true
}

func (p *Player) Snapshot() Snapshot {
	s := Snapshot{State: p.state, Index: p.index}
	if p.seq != nil {
		s.SequenceID = p.seq.ID
		if p.state == Running && p.index >= 0 && p.index < len(p.seq.Steps) {
			step := p.seq.Steps[p.index]
			s.Step = &step
		}
	}
	return s
}
