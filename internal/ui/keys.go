package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit       key.Binding
	Back       key.Binding
	SwitchMode key.Binding
	Fetch      key.Binding
	SignOut    key.Binding
	History    key.Binding
}

var Keys = KeyMap{
	Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	SwitchMode: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "switch mode")),
	Fetch:      key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "fetch user")),
	SignOut:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "sign out")),
	History:    key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "history")),
}

// ShortHelp lists the global bindings shown under the form.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SwitchMode, k.Fetch, k.SignOut, k.History, k.Quit}
}
