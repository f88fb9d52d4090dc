package tui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sadopc/gesturekeeper/internal/clock"
	"github.com/sadopc/gesturekeeper/internal/events"
	"github.com/sadopc/gesturekeeper/internal/export"
	"github.com/sadopc/gesturekeeper/internal/gesture"
	"github.com/sadopc/gesturekeeper/internal/keeper"
	"github.com/sadopc/gesturekeeper/internal/playback"
	"github.com/sadopc/gesturekeeper/internal/sequence"
)

var zoneOnce sync.Once

// firer is implemented by schedulers whose callbacks must be run by the
// event loop.
type firer interface {
	Fired() <-chan func()
}

var exportFormats = []string{"Sequences (CSV)", "Gestures (CSV)", "Everything (JSON)"}

// App is the root Bubble Tea model.
type App struct {
	svc    *keeper.Service
	log    *slog.Logger
	fired  <-chan func()
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	gestures  gesturesModel
	sequences sequencesModel
	player    playerModel
	settings  settingsModel

	help        help.Model
	status      string
	statusError bool
}

func NewApp(svc *keeper.Service, bus *events.Bus, sched clock.Scheduler, log *slog.Logger) App {
	zoneOnce.Do(zone.NewGlobal)
	if log == nil {
		log = slog.Default()
	}

	h := help.New()
	h.ShowAll = false

	gestureRec := gesture.NewRecorder(gesture.WithBus(bus), gesture.WithClock(sched.Now))
	sequenceRec := sequence.NewRecorder(sequence.WithBus(bus), sequence.WithClock(sched.Now))

	a := App{
		svc:        svc,
		log:        log,
		activeView: viewGestures,
		gestures:   newGesturesModel(svc, gestureRec),
		sequences:  newSequencesModel(svc, sequenceRec, sched.Now),
		player:     newPlayerModel(svc, sched, log),
		settings:   newSettingsModel(svc.Store()),
		help:       h,
	}
	if f, ok := sched.(firer); ok {
		a.fired = f.Fired()
	}
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.gestures.refresh(),
		a.sequences.refresh(),
		a.player.refresh(),
		waitForTimer(a.fired),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.gestures.setSize(a.width, contentHeight)
		a.sequences.setSize(a.width, contentHeight)
		a.sequences.setScreen(a.width, a.height)
		a.player.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// Forms take every key; capture surfaces take all but quit.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}
		if a.capturing() && !key.Matches(msg, keys.Quit) {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			a.player.player.Close()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewGestures)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewSequences)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewPlayer)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		return a, tickCmd()

	case timerFiredMsg:
		if msg != nil {
			msg()
		}
		return a, tea.Batch(waitForTimer(a.fired), a.player.drain())

	case playSequenceMsg:
		a.activeView = viewPlayer
		var cmd tea.Cmd
		a.player, cmd = a.player.update(msg)
		return a, tea.Batch(cmd, a.player.refresh())

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case settingsChangedMsg:
		a.status = "Settings saved"
		a.statusError = false
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil

	// Data refreshes go to their owner whichever tab is showing.
	case gesturesDataMsg:
		var cmd tea.Cmd
		a.gestures, cmd = a.gestures.update(msg)
		return a, cmd
	case sequencesDataMsg:
		var cmd tea.Cmd
		a.sequences, cmd = a.sequences.update(msg)
		return a, tea.Batch(cmd, a.player.refresh())
	case playerDataMsg:
		var cmd tea.Cmd
		a.player, cmd = a.player.update(msg)
		return a, cmd
	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewGestures:
		a.gestures, cmd = a.gestures.update(msg)
	case viewSequences:
		a.sequences, cmd = a.sequences.update(msg)
	case viewPlayer:
		a.player, cmd = a.player.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewGestures:
		return a.gestures.formActive
	case viewSequences:
		return a.sequences.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

// capturing reports whether a recording surface owns the keyboard.
func (a App) capturing() bool {
	switch a.activeView {
	case viewGestures:
		return a.gestures.capturing()
	case viewSequences:
		return a.sequences.authoring()
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewGestures:
		return a.gestures.refresh()
	case viewSequences:
		return a.sequences.refresh()
	case viewPlayer:
		return a.player.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := zone.Mark(zoneHeader, a.renderHeader())
	footer := zone.Mark(zoneFooter, a.renderFooter())

	var content string
	switch a.activeView {
	case viewGestures:
		content = a.gestures.view()
	case viewSequences:
		content = a.sequences.view()
	case viewPlayer:
		content = a.player.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, header, content, footer))
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("gesturekeeper")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Playback indicator
	indicator := ""
	if seq, ok := a.player.loaded(); ok {
		switch a.player.status.snap.State {
		case playback.Armed:
			indicator = warningStyle.Render(" ⏱ " + formatDuration(a.player.remaining()))
		case playback.Running:
			indicator = successStyle.Render(" ▶ " + seq.Name)
		}
	}

	left := footerStyle.Render(helpView)
	right := indicator + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	svc, log := a.svc, a.log
	return func() tea.Msg {
		home, err := os.UserHomeDir()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		path, err := exportTo(svc, home, format, time.Now())
		if err != nil {
			log.Error("export failed", "format", exportFormats[format], "err", err)
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		log.Info("exported", "path", path)
		return exportDoneMsg{path: path}
	}
}

// exportTo writes one export into dir and returns the file path.
func exportTo(svc *keeper.Service, dir string, format int, now time.Time) (string, error) {
	dateStr := now.Format("2006-01-02")
	switch format {
	case 0:
		path := filepath.Join(dir, fmt.Sprintf("gesturekeeper-sequences-%s.csv", dateStr))
		return path, export.ToCSV(svc.Sequences(), path)
	case 1:
		path := filepath.Join(dir, fmt.Sprintf("gesturekeeper-gestures-%s.csv", dateStr))
		return path, export.GesturesToCSV(svc.Gestures(), path)
	default:
		path := filepath.Join(dir, fmt.Sprintf("gesturekeeper-export-%s.json", dateStr))
		return path, export.ToJSON(svc.Gestures(), svc.Sequences(), path)
	}
}
