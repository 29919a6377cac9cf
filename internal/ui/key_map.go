package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	play     key.Binding
	toggle   key.Binding
	refresh  key.Binding
	upload   key.Binding
	logout   key.Binding
	next     key.Binding
	prev     key.Binding
	submit   key.Binding
	switchTo key.Binding
	back     key.Binding
	quit     key.Binding
	forceQ   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		play:     key.NewBinding(key.WithKeys("enter", "p"), key.WithHelp("enter", "play")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "sign out")),
		next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		switchTo: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "switch form")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		forceQ:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.play, k.toggle, k.refresh},
		{k.upload, k.logout, k.back},
		{k.next, k.submit, k.quit},
	}
}
