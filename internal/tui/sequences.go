package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sadopc/gesturekeeper/internal/keeper"
	"github.com/sadopc/gesturekeeper/internal/sequence"
	"github.com/sadopc/gesturekeeper/internal/store"
	"github.com/sadopc/gesturekeeper/internal/surface"
)

type seqMode int

const (
	seqList seqMode = iota
	seqBounded
	seqFloating
)

type sequencesModel struct {
	svc    *keeper.Service
	rec    *sequence.Recorder
	now    func() time.Time
	locate locator
	width  int
	height int

	// Terminal size, for the floating recorder's viewport.
	screenW, screenH int

	mode       seqMode
	sequences  []sequence.Record
	cursor     int
	stepCursor int

	toolbar bubble
	// Screen position of the sheet's top left cell, from the last click.
	originX, originY int

	formActive bool
	form       *huh.Form
	formKind   string // "save", "delete"

	// Form field pointers (survive value copies)
	formName    *string
	formTimer   *bool
	formMinutes *string
	confirm     *bool
	deleteID    string
}

func newSequencesModel(svc *keeper.Service, rec *sequence.Recorder, now func() time.Time) sequencesModel {
	name, minutes := "", ""
	timer, confirm := false, false
	return sequencesModel{
		svc:         svc,
		rec:         rec,
		now:         now,
		locate:      zoneRect,
		formName:    &name,
		formTimer:   &timer,
		formMinutes: &minutes,
		confirm:     &confirm,
	}
}

func (s *sequencesModel) setSize(w, h int) {
	s.width = w
	s.height = h
	if s.toolbar.viewW == 0 {
		s.toolbar = newBubble(w, h)
	} else {
		s.toolbar.resize(w, h)
	}
}

func (s *sequencesModel) setScreen(w, h int) {
	s.screenW = w
	s.screenH = h
}

type sequencesDataMsg struct {
	sequences []sequence.Record
}

func (s sequencesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return sequencesDataMsg{sequences: s.svc.Sequences()}
	}
}

func (s sequencesModel) authoring() bool {
	return s.mode != seqList
}

func (s sequencesModel) update(msg tea.Msg) (sequencesModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case sequencesDataMsg:
		s.sequences = msg.sequences
		s.cursor = clamp(s.cursor, 0, len(s.sequences)-1)
		return s, nil

	case tea.MouseMsg:
		switch s.mode {
		case seqBounded:
			return s.updateBoundedMouse(msg)
		case seqFloating:
			return s.updateFloatingMouse(msg)
		}

	case tea.KeyMsg:
		if s.mode == seqList {
			return s.updateList(msg)
		}
		return s.updateAuthoring(msg)
	}
	return s, nil
}

func (s sequencesModel) updateList(msg tea.KeyMsg) (sequencesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, keys.Down):
		if s.cursor < len(s.sequences)-1 {
			s.cursor++
		}
	case key.Matches(msg, keys.New):
		return s.openAuthoring(seqBounded)
	case key.Matches(msg, keys.Float):
		return s.openAuthoring(seqFloating)
	case key.Matches(msg, keys.Play), key.Matches(msg, keys.Enter):
		if len(s.sequences) > 0 {
			seq := s.sequences[s.cursor]
			return s, func() tea.Msg { return playSequenceMsg{seq: seq} }
		}
	case key.Matches(msg, keys.Delete):
		if len(s.sequences) > 0 {
			return s.showDeleteForm(s.sequences[s.cursor])
		}
	}
	return s, nil
}

// openAuthoring starts a fresh recording session. The floating recorder
// captures immediately, as its toolbar is always showing.
func (s sequencesModel) openAuthoring(mode seqMode) (sequencesModel, tea.Cmd) {
	s.rec.Reset()
	s.mode = mode
	s.stepCursor = 0
	if mode == seqFloating {
		s.toolbar = newBubble(s.width, s.height)
		s.rec.Start()
		return s, statusCmd("Floating recorder: click anywhere to add steps", false)
	}
	return s, nil
}

func (s sequencesModel) closeAuthoring() sequencesModel {
	s.rec.Reset()
	s.mode = seqList
	return s
}

func (s sequencesModel) updateAuthoring(msg tea.KeyMsg) (sequencesModel, tea.Cmd) {
	steps := s.rec.Steps()
	switch {
	case key.Matches(msg, keys.Back):
		return s.closeAuthoring(), nil
	case key.Matches(msg, keys.Record):
		if s.rec.Recording() {
			s.rec.Stop()
			return s, statusCmd("Recording stopped", false)
		}
		s.rec.Start()
		s.stepCursor = 0
		return s, statusCmd("Recording: click on the canvas to add steps", false)
	case key.Matches(msg, keys.Tap):
		s.rec.SetAction(sequence.Tap)
	case key.Matches(msg, keys.DoubleTap):
		s.rec.SetAction(sequence.DoubleTap)
	case key.Matches(msg, keys.Swipe):
		s.rec.SetAction(sequence.Swipe)
	case key.Matches(msg, keys.Bubble):
		if s.mode == seqFloating {
			s.toolbar.toggle()
		}
	case key.Matches(msg, keys.Up):
		if s.stepCursor > 0 {
			s.stepCursor--
		}
	case key.Matches(msg, keys.Down):
		if s.stepCursor < len(steps)-1 {
			s.stepCursor++
		}
	case key.Matches(msg, keys.Delete):
		if s.stepCursor < len(steps) {
			s.rec.RemoveStep(steps[s.stepCursor].ID)
			s.stepCursor = clamp(s.stepCursor, 0, len(steps)-2)
		}
	case key.Matches(msg, keys.DelayUp):
		return s.adjustDelay(steps, 1)
	case key.Matches(msg, keys.DelayDown):
		return s.adjustDelay(steps, -1)
	case key.Matches(msg, keys.DelayReset):
		if s.stepCursor < len(steps) {
			s.rec.SetDelay(steps[s.stepCursor].ID, -1)
		}
	case key.Matches(msg, keys.Save):
		if len(steps) == 0 {
			return s, statusCmd("Add at least one step before saving", true)
		}
		return s.showSaveForm()
	}
	return s, nil
}

// adjustDelay nudges the selected step's delay by the configured increment,
// starting from the default when the step has none.
func (s sequencesModel) adjustDelay(steps []sequence.Step, dir int) (sequencesModel, tea.Cmd) {
	if s.stepCursor >= len(steps) {
		return s, nil
	}
	st := steps[s.stepCursor]
	inc := s.svc.Store().IntSettingOr(store.SettingDelayIncrement, 250)
	cur := int(sequence.DefaultStepDelay.Milliseconds())
	if st.Delay != nil {
		cur = *st.Delay
	}
	if err := s.rec.SetDelay(st.ID, max(cur+dir*inc, 0)); err != nil {
		return s, statusCmd(err.Error(), true)
	}
	return s, nil
}

func (s sequencesModel) updateBoundedMouse(msg tea.MouseMsg) (sequencesModel, tea.Cmd) {
	if !isLeftPress(msg) {
		return s, nil
	}
	rect, ok := s.locate(zoneSequenceSheet)
	if !ok {
		return s, nil
	}
	s.rec.SetScope(surface.Bounded{Rect: rect})
	s.rec.Click(msg.X, msg.Y)
	return s, nil
}

func (s sequencesModel) updateFloatingMouse(msg tea.MouseMsg) (sequencesModel, tea.Cmd) {
	if rect, ok := s.locate(zoneSequenceSheet); ok {
		s.originX, s.originY = rect.X, rect.Y
	}
	bx, by := msg.X-s.originX, msg.Y-s.originY

	switch {
	case isLeftPress(msg):
		if s.toolbar.press(bx, by) {
			return s, nil
		}
		s.rec.SetScope(s.viewportScope())
		s.rec.Click(msg.X, msg.Y)
	case msg.Action == tea.MouseActionMotion:
		s.toolbar.drag(bx, by)
	case msg.Action == tea.MouseActionRelease:
		if s.toolbar.release() {
			s.clickToolbar(bx, by)
		}
	}
	return s, nil
}

// viewportScope accepts clicks anywhere on screen except the header, footer
// and toolbar.
func (s sequencesModel) viewportScope() surface.Viewport {
	tb := s.toolbar.rect()
	tb.X += s.originX
	tb.Y += s.originY
	exclude := []surface.Rect{tb}
	for _, id := range []string{zoneHeader, zoneFooter} {
		if r, ok := s.locate(id); ok {
			exclude = append(exclude, r)
		}
	}
	return surface.Viewport{Width: s.screenW, Height: s.screenH, Exclude: exclude}
}

// clickToolbar expands a collapsed toolbar; on an expanded one the top row
// collapses it and the control row cycles the action.
func (s *sequencesModel) clickToolbar(x, y int) {
	if !s.toolbar.expanded {
		s.toolbar.toggle()
		return
	}
	switch s.toolbar.row(x, y) {
	case bubbleRowClose:
		s.toolbar.toggle()
	case bubbleRowControl:
		s.rec.SetAction(nextAction(s.rec.Action()))
	}
}

func nextAction(a sequence.Action) sequence.Action {
	for i, v := range sequence.Actions {
		if v == a {
			return sequence.Actions[(i+1)%len(sequence.Actions)]
		}
	}
	return sequence.Tap
}

// --- Forms ---

func (s sequencesModel) showSaveForm() (sequencesModel, tea.Cmd) {
	st := s.svc.Store()
	*s.formName = st.SettingOr(store.SettingSequenceName, "New Sequence")
	*s.formTimer = false
	*s.formMinutes = strconv.Itoa(st.IntSettingOr(store.SettingTimerMinutes, 5))

	timer := s.formTimer
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Sequence name").Value(s.formName).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return sequence.ErrNameRequired
					}
					return nil
				}),
			huh.NewConfirm().Title("Activate sequence on timer").Value(s.formTimer),
		),
		huh.NewGroup(
			huh.NewInput().Title("Delay (minutes)").Value(s.formMinutes).Validate(validateMinutes),
		).WithHideFunc(func() bool { return !*timer }),
	).WithShowHelp(true).WithShowErrors(true)

	s.formKind = "save"
	s.formActive = true
	return s, s.form.Init()
}

func validateMinutes(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return errors.New("enter a whole number of minutes")
	}
	if n < 1 {
		return sequence.ErrInvalidTimerDelay
	}
	return nil
}

func (s sequencesModel) showDeleteForm(rec sequence.Record) (sequencesModel, tea.Cmd) {
	*s.confirm = false
	s.deleteID = rec.ID
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete sequence?").
				Description(fmt.Sprintf("%q and its %d steps will be removed.", rec.Name, len(rec.Steps))).
				Affirmative("Delete").
				Negative("Cancel").
				Value(s.confirm),
		),
	)
	s.formKind = "delete"
	s.formActive = true
	return s, s.form.Init()
}

func (s sequencesModel) updateForm(msg tea.Msg) (sequencesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		switch s.formKind {
		case "save":
			return s.save()
		case "delete":
			return s.deleteConfirmed()
		}
	}
	return s, cmd
}

func (s sequencesModel) save() (sequencesModel, tea.Cmd) {
	minutes, _ := strconv.Atoi(strings.TrimSpace(*s.formMinutes))
	rec, err := s.rec.Save(strings.TrimSpace(*s.formName), *s.formTimer, minutes)
	if err != nil {
		return s, statusCmd(fmt.Sprintf("Save failed: %v", err), true)
	}
	s = s.closeAuthoring()
	return s, tea.Batch(s.refresh(), statusCmd(fmt.Sprintf("Sequence saved: %s (%d steps)", rec.Name, len(rec.Steps)), false))
}

func (s sequencesModel) deleteConfirmed() (sequencesModel, tea.Cmd) {
	if !*s.confirm {
		return s, nil
	}
	if err := s.svc.DeleteSequence(s.deleteID); err != nil {
		return s, statusCmd(fmt.Sprintf("Delete failed: %v", err), true)
	}
	return s, tea.Batch(s.refresh(), statusCmd("Sequence deleted", false))
}

// --- View ---

func (s sequencesModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := "Save Sequence"
		if s.formKind == "delete" {
			title = "Delete Sequence"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", s.form.View()),
		)
	}

	switch s.mode {
	case seqBounded:
		return s.viewBounded(w)
	case seqFloating:
		return s.viewFloating()
	}
	return s.viewList(w)
}

func (s sequencesModel) viewList(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Your Sequences"))
	rows = append(rows, "")

	if len(s.sequences) == 0 {
		rows = append(rows, mutedStyle.Render("  No sequences yet. Press n to record one, or f for the floating recorder."))
	}
	for i, seq := range s.sequences {
		cursor, style := "  ", normalItemStyle
		if i == s.cursor {
			cursor, style = "> ", selectedItemStyle
		}
		timer := mutedStyle.Render("manual")
		if seq.TimerEnabled && seq.TimerDelay != nil {
			timer = warningStyle.Render(fmt.Sprintf("⏱ %d min", *seq.TimerDelay))
		}
		name := lipgloss.NewStyle().Width(30).Render(style.Render(cursor + seq.Name))
		rows = append(rows, fmt.Sprintf("%s %s  %s  %s  %s  %s",
			name,
			highlightStyle.Render(fmt.Sprintf("%2d steps", len(seq.Steps))),
			stepIcons(seq.Steps),
			mutedStyle.Render(formatDuration(seq.TotalDuration())),
			timer,
			mutedStyle.Render("created "+humanize.RelTime(seq.CreatedAt, s.now(), "ago", "from now")),
		))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  f: floating recorder  enter/p: play  x: delete"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (s sequencesModel) sheetSize() (int, int) {
	return clamp(s.width-46, 20, 64), clamp(s.height-10, 6, 18)
}

func (s sequencesModel) viewBounded(w int) string {
	cw, ch := s.sheetSize()
	c := newCanvas(cw, ch)
	drawSteps(c, s.rec.Steps(), 0, 0, -1)
	if o, ok := s.rec.PendingOrigin(); ok {
		x, y := cellOf(o.X, o.Y)
		c.set(x, y, '◌', inkPending)
	}
	if len(s.rec.Steps()) == 0 && !s.rec.Recording() {
		hint := "Press r, then click here"
		c.text((cw-len(hint))/2, ch/2, hint, inkFaint)
	}

	frame := surfaceStyle
	if s.rec.Recording() {
		frame = recordingSurfaceStyle
	}
	sheet := frame.Render(zone.Mark(zoneSequenceSheet, c.String()))

	left := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Record Sequence")+"  "+s.recordingBadge(),
		s.actionBar(),
		"",
		sheet,
	)
	right := s.stepList(max(w-cw-10, 24))

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
		"",
		mutedStyle.Render("r: record  t/d/w: action  ↑/↓: step  +/-/0: delay  x: remove  s: save  esc: cancel"),
	))
}

// viewFloating fills the content area with the capture sheet and overlays
// the toolbar bubble.
func (s sequencesModel) viewFloating() string {
	c := newCanvas(s.width, s.height)
	drawSteps(c, s.rec.Steps(), -s.originX, -s.originY, -1)
	if o, ok := s.rec.PendingOrigin(); ok {
		x, y := cellOf(o.X, o.Y)
		c.set(x-s.originX, y-s.originY, '◌', inkPending)
	}
	c.text(1, 0, "Floating recorder: "+s.rec.Action().Label()+" | b: toolbar  s: save  esc: close", inkFaint)
	s.toolbar.draw(c, "New Sequence", s.rec.Steps(), "● "+s.rec.Action().Label())
	return zone.Mark(zoneSequenceSheet, c.String())
}

func (s sequencesModel) recordingBadge() string {
	if s.rec.Recording() {
		return accentStyle.Render("● REC")
	}
	return mutedStyle.Render("○ paused")
}

func (s sequencesModel) actionBar() string {
	var parts []string
	for _, a := range sequence.Actions {
		label := fmt.Sprintf(" %c %s ", actionIcon(a), a.Label())
		if a == s.rec.Action() {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Bottom, parts...)
	if _, ok := s.rec.PendingOrigin(); ok {
		bar += "  " + warningStyle.Render("click the swipe target")
	}
	return bar
}

func (s sequencesModel) stepList(w int) string {
	steps := s.rec.Steps()
	rows := []string{titleStyle.Render(fmt.Sprintf("Steps (%d)", len(steps)))}
	if len(steps) == 0 {
		rows = append(rows, mutedStyle.Render("none yet"))
	}
	for i, st := range steps {
		cursor, style := "  ", normalItemStyle
		if i == s.stepCursor {
			cursor, style = "> ", selectedItemStyle
		}
		where := formatPos(st.Position)
		if st.TargetPosition != nil {
			where += " → " + formatPos(*st.TargetPosition)
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%d. ", cursor, i+1))+
			actionStyles[st.Type].Render(st.Type.Label())+" "+
			mutedStyle.Render(where)+" "+formatDelay(st))
	}
	return lipgloss.NewStyle().Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// drawSteps plots numbered step markers, swipe lines included. Positions are
// shifted by (dx, dy); active highlights one step, -1 for none.
func drawSteps(c *canvas, steps []sequence.Step, dx, dy, active int) {
	for i, st := range steps {
		if st.TargetPosition == nil {
			continue
		}
		x0, y0 := cellOf(st.Position.X, st.Position.Y)
		x1, y1 := cellOf(st.TargetPosition.X, st.TargetPosition.Y)
		k := inkSwipe
		if i == active {
			k = inkActive
		}
		c.line(x0+dx, y0+dy, x1+dx, y1+dy, '·', k)
		c.set(x1+dx, y1+dy, '◆', k)
	}
	for i, st := range steps {
		x, y := cellOf(st.Position.X, st.Position.Y)
		k := inkMarker
		if i == active {
			k = inkActive
		}
		c.set(x+dx, y+dy, actionIcon(st.Type), k)
		c.text(x+dx+1, y+dy, strconv.Itoa(i+1), k)
	}
}
