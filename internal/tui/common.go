package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sadopc/gesturekeeper/internal/sequence"
	"github.com/sadopc/gesturekeeper/internal/surface"
)

// viewState represents the currently active view.
type viewState int

const (
	viewGestures viewState = iota
	viewSequences
	viewPlayer
	viewSettings
)

var viewNames = []string{"Gestures", "Sequences", "Player", "Settings"}

// Zone ids for the mouse-aware regions.
const (
	zoneHeader        = "header"
	zoneFooter        = "footer"
	zoneGestureCanvas = "gesture-canvas"
	zoneSequenceSheet = "sequence-canvas"
	zonePlayerStage   = "player-stage"
)

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// timerFiredMsg carries a clock callback that must run on the UI loop.
type timerFiredMsg func()

// playSequenceMsg asks the player to load a sequence.
type playSequenceMsg struct {
	seq sequence.Record
}

type exportDoneMsg struct {
	path string
}

type settingsChangedMsg struct{}

// --- Helpers ---

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

// waitForTimer blocks until the clock hands over a fired callback.
func waitForTimer(ch <-chan func()) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		fn, ok := <-ch
		if !ok {
			return nil
		}
		return timerFiredMsg(fn)
	}
}

// locator resolves the screen rectangle of a marked zone.
type locator func(id string) (surface.Rect, bool)

// zoneRect reads the bounds bubblezone recorded for id on the last render.
func zoneRect(id string) (surface.Rect, bool) {
	z := zone.Get(id)
	if z == nil || (z.StartX == 0 && z.StartY == 0 && z.EndX == 0 && z.EndY == 0) {
		return surface.Rect{}, false
	}
	return surface.Rect{
		X:      z.StartX,
		Y:      z.StartY,
		Width:  z.EndX - z.StartX + 1,
		Height: z.EndY - z.StartY + 1,
	}, true
}

func isLeftPress(msg tea.MouseMsg) bool {
	return msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatDelay(st sequence.Step) string {
	if st.Delay == nil {
		return mutedStyle.Render(fmt.Sprintf("%dms", sequence.DefaultStepDelay.Milliseconds()))
	}
	return fmt.Sprintf("%dms", *st.Delay)
}

func formatPos(p sequence.Position) string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}
