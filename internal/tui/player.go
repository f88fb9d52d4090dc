package tui

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sadopc/gesturekeeper/internal/clock"
	"github.com/sadopc/gesturekeeper/internal/keeper"
	"github.com/sadopc/gesturekeeper/internal/playback"
	"github.com/sadopc/gesturekeeper/internal/sequence"
)

// playerStatus is written by the player's observer and read by the view.
// It lives behind a pointer so value copies of the model share it.
type playerStatus struct {
	snap      playback.Snapshot
	armedAt   time.Time
	completed bool
}

type playerModel struct {
	svc    *keeper.Service
	sched  clock.Scheduler
	player *playback.Player
	status *playerStatus
	locate locator
	width  int
	height int

	sequences []sequence.Record
	cursor    int

	overlay bubble
	chart   barchart.Model
}

func newPlayerModel(svc *keeper.Service, sched clock.Scheduler, log *slog.Logger) playerModel {
	status := &playerStatus{snap: playback.Snapshot{Index: -1}}
	p := playback.New(sched,
		playback.WithLogger(log),
		playback.WithObserver(func(s playback.Snapshot) {
			status.snap = s
			switch s.State {
			case playback.Armed:
				status.armedAt = sched.Now()
			case playback.Complete:
				status.completed = true
			}
		}),
	)
	return playerModel{
		svc:    svc,
		sched:  sched,
		player: p,
		status: status,
		locate: zoneRect,
		chart:  barchart.New(40, 8),
	}
}

func (p *playerModel) setSize(w, h int) {
	p.width = w
	p.height = h
	sw, sh := p.stageSize()
	if p.overlay.viewW == 0 {
		p.overlay = newBubble(sw, sh)
	} else {
		p.overlay.resize(sw, sh)
	}
	p.buildChart()
}

type playerDataMsg struct {
	sequences []sequence.Record
}

func (p playerModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return playerDataMsg{sequences: p.svc.Sequences()}
	}
}

func (p playerModel) loaded() (sequence.Record, bool) {
	return p.player.Sequence()
}

func (p playerModel) update(msg tea.Msg) (playerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case playerDataMsg:
		p.sequences = msg.sequences
		p.cursor = clamp(p.cursor, 0, len(p.sequences)-1)
		// The loaded sequence may have been deleted elsewhere.
		if seq, ok := p.loaded(); ok {
			if _, found := p.svc.Sequence(seq.ID); !found {
				p.player.Close()
			}
		}
		return p, nil

	case playSequenceMsg:
		return p.open(msg.seq)

	case tea.MouseMsg:
		if _, ok := p.loaded(); ok {
			return p.updateMouse(msg)
		}

	case tea.KeyMsg:
		if _, ok := p.loaded(); ok {
			return p.updateLoaded(msg)
		}
		return p.updatePicker(msg)
	}
	return p, nil
}

func (p playerModel) updatePicker(msg tea.KeyMsg) (playerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.sequences)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Play):
		if len(p.sequences) > 0 {
			return p.open(p.sequences[p.cursor])
		}
	}
	return p, nil
}

func (p playerModel) open(seq sequence.Record) (playerModel, tea.Cmd) {
	p.status.completed = false
	p.player.Open(seq)
	p.overlay.expanded = false
	p.buildChart()
	if p.player.State() == playback.Armed {
		return p, statusCmd(fmt.Sprintf("%s armed: starts in %d min", seq.Name, *seq.TimerDelay), false)
	}
	return p, nil
}

func (p playerModel) updateLoaded(msg tea.KeyMsg) (playerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Play):
		return p.togglePlay()
	case key.Matches(msg, keys.Arm):
		if err := p.player.Arm(); err != nil {
			return p, statusCmd(err.Error(), true)
		}
		return p, statusCmd("Timer armed", false)
	case key.Matches(msg, keys.Bubble):
		p.overlay.toggle()
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Delete):
		p.player.Close()
		return p, nil
	}
	return p, nil
}

func (p playerModel) togglePlay() (playerModel, tea.Cmd) {
	p.status.completed = false
	if err := p.player.TogglePlay(); err != nil {
		return p, statusCmd(err.Error(), true)
	}
	return p, p.drain()
}

// drain reports a completed run once. Zero-length runs complete inside
// TogglePlay; the rest complete from a timer callback.
func (p playerModel) drain() tea.Cmd {
	if !p.status.completed {
		return nil
	}
	p.status.completed = false
	name := "Sequence"
	if seq, ok := p.loaded(); ok {
		name = seq.Name
	}
	return statusCmd(fmt.Sprintf("Sequence complete: %s", name), false)
}

func (p playerModel) updateMouse(msg tea.MouseMsg) (playerModel, tea.Cmd) {
	rect, ok := p.locate(zonePlayerStage)
	if !ok {
		return p, nil
	}
	x, y := msg.X-rect.X, msg.Y-rect.Y

	switch {
	case isLeftPress(msg):
		p.overlay.press(x, y)
	case msg.Action == tea.MouseActionMotion:
		p.overlay.drag(x, y)
	case msg.Action == tea.MouseActionRelease:
		if !p.overlay.release() {
			return p, nil
		}
		if !p.overlay.expanded {
			p.overlay.toggle()
			return p, nil
		}
		switch p.overlay.row(x, y) {
		case bubbleRowClose:
			p.overlay.toggle()
		case bubbleRowControl:
			return p.togglePlay()
		}
	}
	return p, nil
}

// remaining is the time left before an armed sequence starts.
func (p playerModel) remaining() time.Duration {
	seq, ok := p.loaded()
	if !ok || p.player.State() != playback.Armed {
		return 0
	}
	return max(p.status.armedAt.Add(seq.ArmDelay()).Sub(p.sched.Now()), 0)
}

func (p playerModel) stageSize() (int, int) {
	return clamp(p.width-8, 24, 80), clamp(p.height-16, 8, 20)
}

// fitSteps scales step positions down so every marker, swipe targets
// included, lands on a w×h stage. Steps that already fit are returned as is.
func fitSteps(steps []sequence.Step, w, h int) []sequence.Step {
	var maxX, maxY float64
	for _, st := range steps {
		maxX, maxY = max(maxX, st.Position.X), max(maxY, st.Position.Y)
		if t := st.TargetPosition; t != nil {
			maxX, maxY = max(maxX, t.X), max(maxY, t.Y)
		}
	}

	// Leave one column for the step number after the marker.
	scale := 1.0
	if limit := float64(w - 2); limit > 0 && maxX > limit {
		scale = min(scale, limit/maxX)
	}
	if limit := float64(h - 1); limit > 0 && maxY > limit {
		scale = min(scale, limit/maxY)
	}
	if scale == 1 {
		return steps
	}

	out := make([]sequence.Step, len(steps))
	for i, st := range steps {
		st.Position = sequence.Position{X: st.Position.X * scale, Y: st.Position.Y * scale}
		if t := st.TargetPosition; t != nil {
			st.TargetPosition = &sequence.Position{X: t.X * scale, Y: t.Y * scale}
		}
		out[i] = st
	}
	return out
}

func (p *playerModel) buildChart() {
	seq, ok := p.player.Sequence()
	if !ok || len(seq.Steps) == 0 {
		return
	}
	p.chart = barchart.New(clamp(p.width-8, 20, 80), 8)

	var bars []barchart.BarData
	for i, st := range seq.Steps {
		bars = append(bars, barchart.BarData{
			Label: strconv.Itoa(i + 1),
			Values: []barchart.BarValue{{
				Name:  st.Type.Label(),
				Value: st.Wait().Seconds(),
				Style: actionStyles[st.Type],
			}},
		})
	}
	p.chart.PushAll(bars)
	p.chart.Draw()
}

// --- View ---

func (p playerModel) view() string {
	w := p.width - 4
	seq, ok := p.loaded()
	if !ok {
		return p.viewPicker(w)
	}

	snap := p.status.snap
	state := p.player.State()

	phase := mutedStyle.Render("READY")
	switch state {
	case playback.Armed:
		phase = warningStyle.Render("ARMED")
	case playback.Running:
		phase = successStyle.Render(fmt.Sprintf("PLAYING %d/%d", snap.Index+1, len(seq.Steps)))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render(seq.Name), "  ", phase,
	)

	var info string
	switch state {
	case playback.Armed:
		info = countdownStyle.Render(formatDuration(p.remaining()))
	case playback.Running:
		if snap.Step != nil {
			st := *snap.Step
			info = actionStyles[st.Type].Render(st.Type.Label()) + " at " + formatPos(st.Position)
			if st.TargetPosition != nil {
				info += " → " + formatPos(*st.TargetPosition)
			}
			info += "  " + mutedStyle.Render(formatDelay(st))
		}
	default:
		info = mutedStyle.Render(fmt.Sprintf("%d steps, %s", len(seq.Steps), formatDuration(seq.TotalDuration())))
	}

	active := -1
	if state == playback.Running {
		active = snap.Index
	}
	sw, sh := p.stageSize()
	c := newCanvas(sw, sh)
	drawSteps(c, fitSteps(seq.Steps, sw, sh), 0, 0, active)
	control := "▶ Play"
	if state == playback.Running {
		control = "⏸ Pause"
	}
	p.overlay.draw(c, seq.Name, seq.Steps, control)
	stage := previewSurfaceStyle.Render(zone.Mark(zonePlayerStage, c.String()))

	controls := mutedStyle.Render("space/p: play/stop  a: arm timer  b: bubble  esc: close")

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		header, "", info, "", stage, "", p.chart.View(), "", controls,
	))
}

func (p playerModel) viewPicker(w int) string {
	rows := []string{titleStyle.Render("Choose a sequence to play"), ""}
	if len(p.sequences) == 0 {
		rows = append(rows, mutedStyle.Render("  No sequences saved yet."))
	}
	for i, seq := range p.sequences {
		cursor, style := "  ", normalItemStyle
		if i == p.cursor {
			cursor, style = "> ", selectedItemStyle
		}
		line := style.Render(cursor+seq.Name) + "  " + mutedStyle.Render(fmt.Sprintf("%d steps", len(seq.Steps)))
		if seq.TimerEnabled && seq.TimerDelay != nil {
			line += "  " + warningStyle.Render(fmt.Sprintf("⏱ %d min", *seq.TimerDelay))
		}
		rows = append(rows, line)
	}
	rows = append(rows, "", mutedStyle.Render("  enter: load"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
