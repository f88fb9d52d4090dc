package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/gesturekeeper/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	gestureName    *string
	sequenceName   *string
	timerMinutes   *string
	delayIncrement *string
}

func newSettingsModel(s *store.Store) settingsModel {
	gn, sn, tm, di := "", "", "", ""
	return settingsModel{
		store:          s,
		gestureName:    &gn,
		sequenceName:   &sn,
		timerMinutes:   &tm,
		delayIncrement: &di,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.gestureName = s.store.SettingOr(store.SettingGestureName, "Custom Gesture")
	*s.sequenceName = s.store.SettingOr(store.SettingSequenceName, "New Sequence")
	*s.timerMinutes = s.store.SettingOr(store.SettingTimerMinutes, "5")
	*s.delayIncrement = s.store.SettingOr(store.SettingDelayIncrement, "250")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Default gesture name").Value(s.gestureName).Validate(nonBlank),
			huh.NewInput().Title("Default sequence name").Value(s.sequenceName).Validate(nonBlank),
		).Title("Names"),
		huh.NewGroup(
			huh.NewInput().Title("Default timer (min)").Value(s.timerMinutes).Validate(atLeast(1)),
			huh.NewInput().Title("Step delay increment (ms)").Value(s.delayIncrement).Validate(atLeast(1)),
		).Title("Playback"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
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
		if err := s.saveSettings(); err != nil {
			return s, statusCmd(fmt.Sprintf("Save settings: %v", err), true)
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return settingsChangedMsg{} })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	values := []store.Setting{
		{Key: store.SettingGestureName, Value: strings.TrimSpace(*s.gestureName)},
		{Key: store.SettingSequenceName, Value: strings.TrimSpace(*s.sequenceName)},
		{Key: store.SettingTimerMinutes, Value: strings.TrimSpace(*s.timerMinutes)},
		{Key: store.SettingDelayIncrement, Value: strings.TrimSpace(*s.delayIncrement)},
	}
	for _, v := range values {
		if err := s.store.SetSetting(v.Key, v.Value); err != nil {
			return err
		}
	}
	return nil
}

func nonBlank(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func atLeast(n int) func(string) error {
	return func(v string) error {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.New("enter a whole number")
		}
		if i < n {
			return fmt.Errorf("must be at least %d", n)
		}
		return nil
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingTimerMinutes:
		return v + " min"
	case store.SettingDelayIncrement:
		return v + " ms"
	}
	return v
}
