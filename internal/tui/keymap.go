package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap defines the global key bindings.
type keyMap struct {
	Start         key.Binding
	Pause         key.Binding
	Stop          key.Binding
	WarmUpUp      key.Binding
	WarmUpDown    key.Binding
	CountdownUp   key.Binding
	CountdownDown key.Binding
	WarningUp     key.Binding
	WarningDown   key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Start: key.NewBinding(
			key.WithKeys("s", "enter"),
			key.WithHelp("s", "start"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "pause/resume"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x", "esc"),
			key.WithHelp("x", "stop"),
		),
		WarmUpUp: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w/W", "warm-up ±1s"),
		),
		WarmUpDown: key.NewBinding(
			key.WithKeys("W"),
		),
		CountdownUp: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c/C", "countdown ±1s"),
		),
		CountdownDown: key.NewBinding(
			key.WithKeys("C"),
		),
		WarningUp: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n/N", "warning ±1s"),
		),
		WarningDown: key.NewBinding(
			key.WithKeys("N"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Stop, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Pause, k.Stop},
		{k.WarmUpUp, k.CountdownUp, k.WarningUp},
		{k.Help, k.Quit},
	}
}
