// Package tui is the terminal dashboard: the inventory list and the
// notifications panel driven by the same controllers as the web shell.
package tui

import (
	"context"
	"errors"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/erazemk/scannerlog/internal/app"
	"github.com/erazemk/scannerlog/internal/inventory"
	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/notifications"
	"github.com/erazemk/scannerlog/internal/notify"
)

type pane int

const (
	itemsPane pane = iota
	notificationsPane
)

// doneMsg reports that a controller call finished. The controllers hold
// the result; the model re-reads their snapshots.
type doneMsg struct {
	err error
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx     context.Context
	app     *app.App
	notices *notify.Queue
	keys    KeyMap
	help    help.Model

	search    textinput.Model
	searching bool

	pane   pane
	cursor int

	inv   inventory.Snapshot
	notes notifications.Snapshot
	// status holds the notices produced by the last finished call.
	status  []notify.Notice
	pending int

	width  int
	height int
}

// New creates the dashboard model. notices must be the queue a's
// controllers report to.
func New(ctx context.Context, a *app.App, notices *notify.Queue) Model {
	search := textinput.New()
	search.Placeholder = "Search items..."
	search.Prompt = "/ "
	search.CharLimit = 200

	return Model{
		ctx:     ctx,
		app:     a,
		notices: notices,
		keys:    DefaultKeyMap,
		help:    help.New(),
		search:  search,
		inv:     a.Inventory.Snapshot(),
		notes:   a.Notifications.Snapshot(),
	}
}

// Init loads the first page and the notifications.
func (m Model) Init() tea.Cmd {
	return m.call(func(ctx context.Context) error {
		m.app.Load(ctx)
		return nil
	})
}

// call runs fn off the UI loop.
func (m *Model) call(fn func(context.Context) error) tea.Cmd {
	m.pending++
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{err: fn(ctx)}
	}
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case doneMsg:
		m.pending = max(m.pending-1, 0)
		m.sync()
		if drained := m.notices.Drain(); len(drained) > 0 {
			m.status = drained
		}
		if msg.err != nil {
			m.app.Logger.Debug("dashboard call failed", "error", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// sync re-reads the controller snapshots.
func (m *Model) sync() {
	m.inv = m.app.Inventory.Snapshot()
	m.notes = m.app.Notifications.Snapshot()
	m.cursor = min(m.cursor, max(len(m.notes.Notifications)-1, 0))
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.searching = false
		m.search.Blur()
		search := m.search.Value()
		return m, m.call(func(ctx context.Context) error {
			return m.app.Inventory.SetSearch(ctx, search)
		})
	case key.Matches(msg, m.keys.Cancel):
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.inv.Query.Search)
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	inv := m.app.Inventory
	notes := m.app.Notifications

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.SwitchView):
		if m.pane == itemsPane {
			m.pane = notificationsPane
		} else {
			m.pane = itemsPane
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if m.pane == notificationsPane {
			return m, m.call(notes.Refresh)
		}
		return m, m.call(inv.Refresh)
	}

	if m.pane == notificationsPane {
		return m.updateNotificationKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.inv.Query.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Category):
		next := cycle(m.inv.Categories, m.inv.Query.Category)
		return m, m.call(func(ctx context.Context) error { return inv.SetCategory(ctx, next) })
	case key.Matches(msg, m.keys.Location):
		next := cycle(m.inv.Locations, m.inv.Query.Location)
		return m, m.call(func(ctx context.Context) error { return inv.SetLocation(ctx, next) })
	case key.Matches(msg, m.keys.Reset):
		m.search.SetValue("")
		return m, m.call(inv.Reset)
	case key.Matches(msg, m.keys.NextPage):
		return m, m.call(inv.NextPage)
	case key.Matches(msg, m.keys.PrevPage):
		return m, m.call(inv.PrevPage)
	case key.Matches(msg, m.keys.ExportCSV):
		return m, m.call(exporter(inv, model.ExportCSV))
	case key.Matches(msg, m.keys.ExportJSON):
		return m, m.call(exporter(inv, model.ExportJSON))
	}
	return m, nil
}

func (m Model) updateNotificationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	notes := m.app.Notifications

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(m.cursor+1, max(len(m.notes.Notifications)-1, 0))
	case key.Matches(msg, m.keys.ToggleUnread):
		m.cursor = 0
		return m, m.call(notes.ToggleUnreadOnly)
	case key.Matches(msg, m.keys.MarkRead):
		if m.cursor >= len(m.notes.Notifications) {
			return m, nil
		}
		n := m.notes.Notifications[m.cursor]
		if n.IsRead {
			return m, nil
		}
		return m, m.call(func(ctx context.Context) error { return notes.MarkRead(ctx, n.ID) })
	case key.Matches(msg, m.keys.MarkAllRead):
		if !m.notes.CanMarkAll {
			return m, nil
		}
		return m, m.call(notes.MarkAllRead)
	}
	return m, nil
}

func exporter(inv *inventory.Controller, format string) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := inv.Export(ctx, format)
		return err
	}
}

// cycle returns the facet value after current, wrapping through "" (no
// filter).
func cycle(values []string, current string) string {
	if len(values) == 0 {
		return ""
	}
	i := slices.Index(values, current)
	if i == len(values)-1 {
		return ""
	}
	return values[i+1]
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctx context.Context, a *app.App, notices *notify.Queue) error {
	program := tea.NewProgram(New(ctx, a, notices), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
