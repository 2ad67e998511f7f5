package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the terminal dashboard.
type KeyMap struct {
	Search       key.Binding
	Category     key.Binding
	Location     key.Binding
	Reset        key.Binding
	NextPage     key.Binding
	PrevPage     key.Binding
	ExportCSV    key.Binding
	ExportJSON   key.Binding
	Refresh      key.Binding
	SwitchView   key.Binding
	ToggleUnread key.Binding
	Up           key.Binding
	Down         key.Binding
	MarkRead     key.Binding
	MarkAllRead  key.Binding
	Submit       key.Binding
	Cancel       key.Binding
	Quit         key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Category: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "category"),
	),
	Location: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "location"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("n", "right"),
		key.WithHelp("n/→", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("p", "left"),
		key.WithHelp("p/←", "prev page"),
	),
	ExportCSV: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export csv"),
	),
	ExportJSON: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "export json"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "refresh"),
	),
	SwitchView: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "items/notifications"),
	),
	ToggleUnread: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "unread only"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	MarkRead: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "mark read"),
	),
	MarkAllRead: key.NewBinding(
		key.WithKeys("M"),
		key.WithHelp("M", "mark all read"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "apply"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// itemsHelp is the help for the items view.
type itemsHelp KeyMap

func (k itemsHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Category, k.Location, k.Reset, k.PrevPage, k.NextPage,
		k.ExportCSV, k.ExportJSON, k.SwitchView, k.Quit}
}

func (k itemsHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Refresh}}
}

// notificationsHelp is the help for the notifications view.
type notificationsHelp KeyMap

func (k notificationsHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.MarkRead, k.MarkAllRead, k.ToggleUnread, k.Refresh,
		k.SwitchView, k.Quit}
}

func (k notificationsHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
