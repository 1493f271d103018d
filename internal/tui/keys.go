package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings shown in the help line.
type keyMap struct {
	Copy  key.Binding
	Pause key.Binding
	Skip  key.Binding
	Plan  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Copy: key.NewBinding(
			key.WithKeys("c", "enter"),
			key.WithHelp("c", "copy/resume"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip file"),
		),
		Plan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "re-plan"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Copy, k.Pause, k.Skip, k.Quit, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Copy, k.Pause, k.Skip},
		{k.Plan, k.Help, k.Quit},
	}
}
