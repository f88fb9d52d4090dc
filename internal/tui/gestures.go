package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sadopc/gesturekeeper/internal/gesture"
	"github.com/sadopc/gesturekeeper/internal/keeper"
	"github.com/sadopc/gesturekeeper/internal/store"
)

type gestureMode int

const (
	gestureList gestureMode = iota
	gestureCapture
)

type gesturesModel struct {
	svc    *keeper.Service
	rec    *gesture.Recorder
	locate locator
	width  int
	height int

	mode     gestureMode
	features []keeper.FeatureStatus
	gestures []gesture.Record
	cursor   int // features first, then gestures

	// Capture target.
	name    string
	feature *gesture.Feature
	drawing bool

	formActive bool
	form       *huh.Form
	confirm    *bool // survives value copies
	deleteID   string
}

func newGesturesModel(svc *keeper.Service, rec *gesture.Recorder) gesturesModel {
	confirm := false
	return gesturesModel{
		svc:     svc,
		rec:     rec,
		locate:  zoneRect,
		confirm: &confirm,
	}
}

func (g *gesturesModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

type gesturesDataMsg struct {
	features []keeper.FeatureStatus
	gestures []gesture.Record
}

func (g gesturesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return gesturesDataMsg{features: g.svc.Features(), gestures: g.svc.Gestures()}
	}
}

func (g gesturesModel) capturing() bool {
	return g.mode == gestureCapture
}

func (g gesturesModel) update(msg tea.Msg) (gesturesModel, tea.Cmd) {
	if g.formActive && g.form != nil {
		return g.updateForm(msg)
	}

	switch msg := msg.(type) {
	case gesturesDataMsg:
		g.features = msg.features
		g.gestures = msg.gestures
		g.cursor = clamp(g.cursor, 0, len(g.features)+len(g.gestures)-1)
		return g, nil

	case tea.MouseMsg:
		if g.mode == gestureCapture {
			return g.updateMouse(msg)
		}

	case tea.KeyMsg:
		if g.mode == gestureCapture {
			return g.updateCapture(msg)
		}
		return g.updateList(msg)
	}
	return g, nil
}

func (g gesturesModel) updateList(msg tea.KeyMsg) (gesturesModel, tea.Cmd) {
	total := len(g.features) + len(g.gestures)
	switch {
	case key.Matches(msg, keys.Up):
		if g.cursor > 0 {
			g.cursor--
		}
	case key.Matches(msg, keys.Down):
		if g.cursor < total-1 {
			g.cursor++
		}
	case key.Matches(msg, keys.New):
		name := g.svc.Store().SettingOr(store.SettingGestureName, "Custom Gesture")
		return g.openCapture(name, nil)
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Feature):
		if g.cursor < len(g.features) {
			f := g.features[g.cursor].Feature
			return g.openCapture(f.GestureName(), &f)
		}
	case key.Matches(msg, keys.Delete):
		if i := g.cursor - len(g.features); i >= 0 && i < len(g.gestures) {
			return g.showDeleteForm(g.gestures[i])
		}
	}
	return g, nil
}

func (g gesturesModel) openCapture(name string, f *gesture.Feature) (gesturesModel, tea.Cmd) {
	g.mode = gestureCapture
	g.name = name
	g.feature = f
	g.drawing = false
	g.rec.Discard()
	return g, nil
}

func (g gesturesModel) closeCapture() gesturesModel {
	g.rec.Discard()
	g.mode = gestureList
	g.feature = nil
	g.drawing = false
	return g
}

func (g gesturesModel) updateCapture(msg tea.KeyMsg) (gesturesModel, tea.Cmd) {
	switch g.rec.State() {
	case gesture.Idle:
		switch {
		case key.Matches(msg, keys.Record):
			g.rec.Start()
			return g, statusCmd("Recording started: draw your gesture pattern now", false)
		case key.Matches(msg, keys.Back):
			return g.closeCapture(), nil
		}

	case gesture.Recording:
		if key.Matches(msg, keys.Back) {
			return g.closeCapture(), nil
		}

	case gesture.Preview:
		switch {
		case key.Matches(msg, keys.Save), key.Matches(msg, keys.Enter):
			return g.commit()
		case key.Matches(msg, keys.Record):
			g.rec.Retry()
			return g, nil
		case key.Matches(msg, keys.Back):
			return g.closeCapture(), nil
		}
	}
	return g, nil
}

func (g gesturesModel) updateMouse(msg tea.MouseMsg) (gesturesModel, tea.Cmd) {
	rect, ok := g.locate(zoneGestureCanvas)
	if !ok {
		return g, nil
	}
	g.rec.SetBounds(rect)

	switch {
	case isLeftPress(msg):
		g.drawing = g.rec.Sample(msg.X, msg.Y)
	case msg.Action == tea.MouseActionMotion && g.drawing:
		g.rec.Sample(msg.X, msg.Y)
	case msg.Action == tea.MouseActionRelease && g.drawing:
		g.drawing = false
		return g.finishStroke()
	}
	return g, nil
}

// finishStroke ends a drag. A stroke that is too short is dropped and the
// recorder stays ready for another attempt.
func (g gesturesModel) finishStroke() (gesturesModel, tea.Cmd) {
	if g.rec.State() != gesture.Recording || len(g.rec.Points()) == 0 {
		return g, nil
	}
	if err := g.rec.Stop(); err != nil {
		if errors.Is(err, gesture.ErrTooShort) {
			return g, statusCmd("Gesture too short: please draw a longer gesture pattern", true)
		}
		return g, statusCmd(err.Error(), true)
	}
	return g, nil
}

func (g gesturesModel) commit() (gesturesModel, tea.Cmd) {
	rec, err := g.rec.Commit(g.name)
	if err != nil {
		return g, statusCmd(fmt.Sprintf("Save failed: %v", err), true)
	}
	text := fmt.Sprintf("Gesture saved: %s", rec.Name)
	if g.feature != nil {
		text = fmt.Sprintf("Security feature activated: %s is now ready to use with your gesture", g.feature.Name)
	}
	g = g.closeCapture()
	return g, tea.Batch(g.refresh(), statusCmd(text, false))
}

func (g gesturesModel) showDeleteForm(rec gesture.Record) (gesturesModel, tea.Cmd) {
	*g.confirm = false
	g.deleteID = rec.ID
	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Are you sure?").
				Description(fmt.Sprintf("This permanently deletes %q.", rec.Name)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(g.confirm),
		),
	).WithShowHelp(true)
	g.formActive = true
	return g, g.form.Init()
}

func (g gesturesModel) updateForm(msg tea.Msg) (gesturesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			g.formActive = false
			g.form = nil
			return g, nil
		}
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}

	if g.form.State == huh.StateCompleted {
		g.formActive = false
		g.form = nil
		if !*g.confirm {
			return g, nil
		}
		if err := g.svc.DeleteGesture(g.deleteID); err != nil {
			return g, statusCmd(fmt.Sprintf("Delete failed: %v", err), true)
		}
		return g, tea.Batch(g.refresh(), statusCmd("Gesture deleted", false))
	}
	return g, cmd
}

// --- View ---

func (g gesturesModel) canvasSize() (int, int) {
	return clamp(g.width-12, 20, 72), clamp(g.height-14, 6, 18)
}

func (g gesturesModel) view() string {
	w := g.width - 4

	if g.formActive && g.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Delete Gesture"), "", g.form.View()),
		)
	}
	if g.mode == gestureCapture {
		return g.viewCapture(w)
	}
	return g.viewList(w)
}

func (g gesturesModel) viewList(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Security Features"))
	rows = append(rows, subtitleStyle.Render("Record gestures to activate security features"))
	rows = append(rows, "")

	for i, f := range g.features {
		cursor, style := "  ", normalItemStyle
		if i == g.cursor {
			cursor, style = "> ", selectedItemStyle
		}
		state := mutedStyle.Render("assign gesture")
		if f.Protected() {
			state = successStyle.Render("● protected")
		}
		name := lipgloss.NewStyle().Width(28).Render(style.Render(cursor + f.Name))
		rows = append(rows, fmt.Sprintf("%s %s  %s", name, state, mutedStyle.Render(f.Description)))
	}

	rows = append(rows, "")
	rows = append(rows, titleStyle.Render("Your Gestures"))
	if len(g.gestures) == 0 {
		rows = append(rows, mutedStyle.Render("  No gestures yet. Press n to record one."))
	}
	for i, rec := range g.gestures {
		cursor, style := "  ", normalItemStyle
		if len(g.features)+i == g.cursor {
			cursor, style = "> ", selectedItemStyle
		}
		name := lipgloss.NewStyle().Width(32).Render(style.Render(cursor + rec.Name))
		rows = append(rows, fmt.Sprintf("%s %s  %s  %s",
			name,
			highlightStyle.Render(fmt.Sprintf("%3d points", len(rec.Points))),
			mutedStyle.Render(rec.CreatedAt.Local().Format("Jan 02, 2006 15:04")),
			accentStyle.Render(gestureSparkline(rec.Points, 12)),
		))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: record new  enter/a: assign to feature  x: delete"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (g gesturesModel) viewCapture(w int) string {
	title := "Record New Gesture"
	if g.feature != nil {
		title = "Record Gesture for " + g.feature.Name
	}

	var desc, controls string
	frame := surfaceStyle
	switch g.rec.State() {
	case gesture.Idle:
		desc = "Press r to start recording, then drag with the mouse"
		controls = "r: start recording  esc: cancel"
	case gesture.Recording:
		desc = "Draw your gesture pattern"
		controls = "release the mouse to finish  esc: cancel"
		frame = recordingSurfaceStyle
	case gesture.Preview:
		desc = "Is this the gesture you want to save?"
		controls = "s: save  r: retry  esc: cancel"
		frame = previewSurfaceStyle
	}

	cw, ch := g.canvasSize()
	sheet := zone.Mark(zoneGestureCanvas, g.renderCanvas(cw, ch))

	indicator := ""
	if g.rec.State() == gesture.Recording {
		indicator = accentStyle.Render("● REC ") + mutedStyle.Render(fmt.Sprintf("%d points", len(g.rec.Points())))
	}

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title)+"  "+indicator,
		subtitleStyle.Render(desc),
		mutedStyle.Render("Saved as "+highlightStyle.Render(g.name)),
		"",
		frame.Render(sheet),
		"",
		mutedStyle.Render(controls),
	))
}

func (g gesturesModel) renderCanvas(w, h int) string {
	c := newCanvas(w, h)
	pts := g.rec.Points()
	if len(pts) == 0 && g.rec.State() == gesture.Idle {
		hint := "Draw your gesture here"
		c.text((w-len(hint))/2, h/2, hint, inkFaint)
		return c.String()
	}
	drawStroke(c, pts)
	return c.String()
}

// drawStroke plots a gesture path: segments first, then the samples on top.
func drawStroke(c *canvas, pts []gesture.Point) {
	for i := 1; i < len(pts); i++ {
		x0, y0 := cellOf(pts[i-1].X, pts[i-1].Y)
		x1, y1 := cellOf(pts[i].X, pts[i].Y)
		c.line(x0, y0, x1, y1, '·', inkStroke)
	}
	for _, p := range pts {
		x, y := cellOf(p.X, p.Y)
		c.set(x, y, '•', inkPoint)
	}
}

func cellOf(x, y float64) (int, int) {
	return int(math.Round(x)), int(math.Round(y))
}

// gestureSparkline summarises a path as a compact row of direction arrows.
func gestureSparkline(pts []gesture.Point, n int) string {
	if len(pts) < 2 {
		return ""
	}
	step := max(len(pts)/n, 1)
	var b strings.Builder
	for i := step; i < len(pts) && b.Len() < n*3; i += step {
		b.WriteRune(direction(pts[i-step], pts[i]))
	}
	return b.String()
}

func direction(a, b gesture.Point) rune {
	dx, dy := b.X-a.X, b.Y-a.Y
	if math.Abs(dx) < 0.5 && math.Abs(dy) < 0.5 {
		return '·'
	}
	angle := math.Atan2(dy, dx)
	arrows := []rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}
	i := int(math.Round(angle/(math.Pi/4)+8)) % 8
	return arrows[i]
}
