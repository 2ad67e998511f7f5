package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/scannerlog/internal/app"
	"github.com/erazemk/scannerlog/internal/apitest"
	"github.com/erazemk/scannerlog/internal/config"
	"github.com/erazemk/scannerlog/internal/download"
	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/notify"
)

type fixture struct {
	srv *apitest.Server
	dir string
	m   Model
}

func newFixture(t *testing.T, seed func(srv *apitest.Server)) *fixture {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("alice", "alice@example.com", "password1")
	if seed != nil {
		seed(srv)
	}

	cfg := config.Default()
	cfg.APIURL = srv.URL
	cfg.StatePath = ":memory:"
	dir := t.TempDir()

	ctx := context.Background()
	notices := &notify.Queue{}
	a, err := app.Open(ctx, cfg, notices, download.Dir{Path: dir}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	require.NoError(t, a.Login(ctx, "alice", "password1"))

	m := New(ctx, a, notices)
	f := &fixture{srv: srv, dir: dir}
	f.m = f.drive(t, m, m.Init())
	return f
}

// drive runs cmd and feeds its result back until no controller call is
// left. Other commands, such as cursor blinks, are not run.
func (f *fixture) drive(t *testing.T, m tea.Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(doneMsg); !ok {
			break
		}
		m, cmd = m.Update(msg)
	}
	return m.(Model)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends k and runs any controller call it starts.
func (f *fixture) press(t *testing.T, k string) {
	t.Helper()
	m, cmd := f.m.Update(keyMsg(k))
	f.m = f.drive(t, m, cmd)
}

func (f *fixture) typeText(t *testing.T, s string) {
	t.Helper()
	for _, r := range s {
		m, _ := f.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		f.m = m.(Model)
	}
}

func seedTwo(srv *apitest.Server) {
	srv.AddItem("alice", model.ItemCreate{Name: "Widget", SKU: "W-1", Quantity: 50, Category: model.StringPtr("Parts")})
	srv.AddItem("alice", model.ItemCreate{Name: "Gadget", SKU: "G-1", Quantity: 1, Category: model.StringPtr("Tools")})
}

func TestInitLoadsDashboard(t *testing.T) {
	f := newFixture(t, seedTwo)

	assert.Len(t, f.m.inv.Items, 2)
	assert.Equal(t, 0, f.m.pending)

	view := f.m.View()
	assert.Contains(t, view, "Widget")
	assert.Contains(t, view, "Low Stock")
	assert.Contains(t, view, "Notifications (1)")
	assert.Contains(t, view, "Page 1 of 1")
}

func TestSearch(t *testing.T) {
	f := newFixture(t, seedTwo)

	m, _ := f.m.Update(keyMsg("/"))
	f.m = m.(Model)
	require.True(t, f.m.searching)
	f.typeText(t, "gad")
	f.press(t, "enter")

	assert.False(t, f.m.searching)
	assert.Equal(t, "gad", f.m.inv.Query.Search)
	require.Len(t, f.m.inv.Items, 1)
	assert.Equal(t, "Gadget", f.m.inv.Items[0].Name)

	// Escape abandons an edit without fetching.
	before := f.srv.Requests("GET /items")
	m, _ = f.m.Update(keyMsg("/"))
	f.m = m.(Model)
	f.typeText(t, "xyz")
	f.press(t, "esc")
	assert.Equal(t, "gad", f.m.inv.Query.Search)
	assert.Equal(t, before, f.srv.Requests("GET /items"))

	f.press(t, "r")
	assert.Empty(t, f.m.inv.Query.Search)
	assert.Len(t, f.m.inv.Items, 2)
}

func TestCycleFacets(t *testing.T) {
	f := newFixture(t, seedTwo)

	f.press(t, "c")
	assert.Equal(t, "Parts", f.m.inv.Query.Category)
	assert.Len(t, f.m.inv.Items, 1)

	// The page now only offers Parts, so the next step clears the filter.
	f.press(t, "c")
	assert.Empty(t, f.m.inv.Query.Category)
	assert.Len(t, f.m.inv.Items, 2)
}

func TestPagingKeys(t *testing.T) {
	f := newFixture(t, func(srv *apitest.Server) {
		for i := 0; i < 12; i++ {
			srv.AddItem("alice", model.ItemCreate{Name: fmt.Sprintf("Item %02d", i), SKU: fmt.Sprintf("S-%02d", i), Quantity: 50})
		}
	})
	assert.Contains(t, f.m.View(), "more may follow")

	f.press(t, "n")
	assert.Equal(t, 2, f.m.inv.Query.Page)
	assert.Len(t, f.m.inv.Items, 2)

	f.press(t, "n")
	assert.Equal(t, 2, f.m.inv.Query.Page, "a short page is the last one")

	f.press(t, "p")
	assert.Equal(t, 1, f.m.inv.Query.Page)
}

func TestExportKeys(t *testing.T) {
	f := newFixture(t, seedTwo)

	f.press(t, "e")
	_, err := os.Stat(filepath.Join(f.dir, "inventory-export.csv"))
	require.NoError(t, err)
	require.Len(t, f.m.status, 1)
	assert.Equal(t, "Inventory data exported as CSV", f.m.status[0].Description)

	f.press(t, "E")
	_, err = os.Stat(filepath.Join(f.dir, "inventory-export.json"))
	require.NoError(t, err)
	assert.Contains(t, f.m.View(), "Export Successful")
}

func TestNotificationsPane(t *testing.T) {
	f := newFixture(t, func(srv *apitest.Server) {
		srv.AddItem("alice", model.ItemCreate{Name: "Gadget", SKU: "G-1", Quantity: 1})
		srv.AddItem("alice", model.ItemCreate{Name: "Sprocket", SKU: "S-1", Quantity: 1})
	})

	f.press(t, "tab")
	assert.Equal(t, notificationsPane, f.m.pane)
	assert.Contains(t, f.m.View(), "showing unread only")

	f.press(t, "j")
	assert.Equal(t, 1, f.m.cursor)
	f.press(t, "j")
	assert.Equal(t, 1, f.m.cursor, "cursor stops at the last notification")

	target := f.m.notes.Notifications[1].ID
	f.press(t, "m")
	assert.True(t, f.m.notes.Notifications[1].IsRead)
	assert.Equal(t, target, f.m.notes.Notifications[1].ID)
	assert.Equal(t, "Notification marked as read", f.m.status[0].Description)

	f.press(t, "M")
	assert.False(t, f.m.notes.CanMarkAll)
	assert.Equal(t, 1, f.srv.Requests("PUT /notifications/read-all"))

	// Nothing unread: no request.
	f.press(t, "M")
	assert.Equal(t, 1, f.srv.Requests("PUT /notifications/read-all"))

	f.press(t, "u")
	assert.False(t, f.m.notes.UnreadOnly)
	assert.Len(t, f.m.notes.Notifications, 2)

	f.press(t, "tab")
	assert.Equal(t, itemsPane, f.m.pane)
}

func TestFetchFailureShowsNotice(t *testing.T) {
	f := newFixture(t, seedTwo)
	f.srv.Fail("GET /items", 500, "")

	f.press(t, "R")
	assert.Len(t, f.m.inv.Items, 2, "the last good page stays")
	assert.Equal(t, "Failed to fetch inventory items", f.m.status[0].Description)
}

func TestQuit(t *testing.T) {
	f := newFixture(t, nil)

	_, cmd := f.m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestCycle(t *testing.T) {
	tests := []struct {
		values  []string
		current string
		want    string
	}{
		{nil, "", ""},
		{[]string{"A", "B"}, "", "A"},
		{[]string{"A", "B"}, "A", "B"},
		{[]string{"A", "B"}, "B", ""},
		{[]string{"A", "B"}, "Z", "A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cycle(tt.values, tt.current), "cycle(%v, %q)", tt.values, tt.current)
	}
}
