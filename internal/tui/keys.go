package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the schedule explorer.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Slip     key.Binding
	Recover  key.Binding
	Reset    key.Binding
	Critical key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybinding configuration.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Slip: key.NewBinding(
			key.WithKeys("+", "=", "right", "l"),
			key.WithHelp("+", "slip a day"),
		),
		Recover: key.NewBinding(
			key.WithKeys("-", "left", "h"),
			key.WithHelp("-", "recover a day"),
		),
		Reset: key.NewBinding(
			key.WithKeys("esc", "0"),
			key.WithHelp("esc", "clear slip"),
		),
		Critical: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "critical only"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll detail"),
		),
		ScrollDn: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll detail"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// FooterBindings returns the bindings shown in the footer.
func FooterBindings(km KeyMap) []key.Binding {
	return []key.Binding{km.Up, km.Down, km.Slip, km.Recover, km.Reset, km.Critical, km.Quit}
}
