package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	New        key.Binding
	Feature    key.Binding
	Float      key.Binding
	Record     key.Binding
	Save       key.Binding
	Delete     key.Binding
	Tap        key.Binding
	DoubleTap  key.Binding
	Swipe      key.Binding
	DelayUp    key.Binding
	DelayDown  key.Binding
	DelayReset key.Binding
	Play       key.Binding
	Arm        key.Binding
	Bubble     key.Binding
	Export     key.Binding
	Tab1       key.Binding
	Tab2       key.Binding
	Tab3       key.Binding
	Tab4       key.Binding
	Tab        key.Binding
	Help       key.Binding
	Enter      key.Binding
	Back       key.Binding
	Up         key.Binding
	Down       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Feature: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "assign to feature"),
	),
	Float: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "floating recorder"),
	),
	Record: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "record/retry"),
	),
	Save: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "delete"),
	),
	Tap: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "tap"),
	),
	DoubleTap: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "double tap"),
	),
	Swipe: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "swipe"),
	),
	DelayUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "longer delay"),
	),
	DelayDown: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "shorter delay"),
	),
	DelayReset: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "default delay"),
	),
	Play: key.NewBinding(
		key.WithKeys(" ", "p"),
		key.WithHelp("space/p", "play/stop"),
	),
	Arm: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "arm timer"),
	),
	Bubble: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "expand bubble"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "gestures"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "sequences"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "player"),
	),
	Tab4: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "settings"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Record, k.Save, k.Play, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Feature, k.Float, k.Record, k.Save, k.Delete},
		{k.Tap, k.DoubleTap, k.Swipe, k.DelayUp, k.DelayDown, k.DelayReset},
		{k.Play, k.Arm, k.Bubble, k.Export},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab},
		{k.Up, k.Down, k.Enter, k.Back, k.Quit},
	}
}
