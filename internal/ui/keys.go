package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the review screen's keys. It implements help.KeyMap.
type KeyMap struct {
	NextDiff    key.Binding
	PrevDiff    key.Binding
	Up          key.Binding
	Down        key.Binding
	HalfDown    key.Binding
	HalfUp      key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Approve     key.Binding
	Command     key.Binding
	OpenBrowser key.Binding
	Help        key.Binding
	Quit        key.Binding
	ForceQuit   key.Binding
}

var Keys = KeyMap{
	NextDiff: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next diff"),
	),
	PrevDiff: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "prev diff"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j", "down"),
	),
	HalfDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("Ctrl+d", "half page down"),
	),
	HalfUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("Ctrl+u", "half page up"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Approve: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "approve diff"),
	),
	Command: key.NewBinding(
		key.WithKeys(":"),
		key.WithHelp(":", "command"),
	),
	OpenBrowser: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open in browser"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+q", "ctrl+c"),
		key.WithHelp("Ctrl+q", "quit"),
	),
}

// ShortHelp is shown in the collapsed help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Approve, k.Command, k.NextDiff, k.PrevDiff, k.Help, k.Quit}
}

// FullHelp is shown when ? expands the help.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Approve, k.Command, k.OpenBrowser},
		{k.NextDiff, k.PrevDiff},
		{k.Down, k.Up, k.HalfDown, k.HalfUp, k.Top, k.Bottom},
		{k.Help, k.Quit, k.ForceQuit},
	}
}
