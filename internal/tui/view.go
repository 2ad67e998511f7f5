package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/notify"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Background(lipgloss.Color("24")).Padding(0, 1)
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTab     = tabStyle.Foreground(lipgloss.Color("255")).Bold(true).Underline(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("237")).Bold(true)
	unreadStyle   = lipgloss.NewStyle().Bold(true)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	successStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34"))
)

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")
	if m.pane == itemsPane {
		b.WriteString(m.viewItems())
	} else {
		b.WriteString(m.viewNotifications())
	}
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	if m.pane == itemsPane {
		b.WriteString(m.help.View(itemsHelp(m.keys)))
	} else {
		b.WriteString(m.help.View(notificationsHelp(m.keys)))
	}
	return b.String()
}

func (m Model) viewHeader() string {
	user := ""
	if u := m.app.Session.User(); u != nil {
		user = faintStyle.Render(" " + u.Username)
	}

	items, notes := tabStyle, tabStyle
	if m.pane == itemsPane {
		items = activeTab
	} else {
		notes = activeTab
	}
	unread := 0
	for _, n := range m.notes.Notifications {
		if !n.IsRead {
			unread++
		}
	}
	notesLabel := "Notifications"
	if unread > 0 {
		notesLabel = fmt.Sprintf("Notifications (%d)", unread)
	}

	loading := ""
	if m.pending > 0 {
		loading = faintStyle.Render(" loading...")
	}
	return titleStyle.Render("Scanner Log") + user + "  " +
		items.Render("Inventory") + notes.Render(notesLabel) + loading
}

func (m Model) viewItems() string {
	var b strings.Builder
	q := m.inv.Query

	if m.searching {
		b.WriteString(m.search.View())
	} else {
		filters := []string{
			"search: " + orAll(q.Search),
			"category: " + orAll(q.Category),
			"location: " + orAll(q.Location),
		}
		b.WriteString(faintStyle.Render(strings.Join(filters, "  ")))
	}
	b.WriteString("\n\n")

	if len(m.inv.Items) == 0 {
		if m.inv.Loading {
			b.WriteString("Loading...\n")
		} else {
			b.WriteString("No items found\n")
		}
	} else {
		b.WriteString(itemTable(m.inv.Items))
	}

	b.WriteString("\n")
	page := fmt.Sprintf("Page %d of %d", q.Page, m.inv.TotalPages)
	if m.inv.HasNext {
		page += " (more may follow)"
	}
	b.WriteString(faintStyle.Render(page))
	b.WriteString("\n")
	return b.String()
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// itemTable lays the items out in fixed columns sized to their content.
func itemTable(items []model.Item) string {
	headers := []string{"Name", "SKU", "Qty", "Category", "Location", "Status"}
	rows := make([][]string, 0, len(items))
	for i := range items {
		item := &items[i]
		rows = append(rows, []string{
			item.Name, item.SKU, strconv.Itoa(item.Quantity),
			orDash(item.CategoryName()), orDash(item.LocationName()), item.Status(),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	cell := func(s string, col int) string {
		return lipgloss.NewStyle().Width(widths[col] + 2).Render(s)
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(headerStyle.Render(cell(h, i)))
	}
	b.WriteString("\n")
	for r, row := range rows {
		for i, c := range row {
			text := cell(c, i)
			if i == len(row)-1 {
				if items[r].LowStock() {
					text = lowStyle.Render(text)
				} else {
					text = okStyle.Render(text)
				}
			}
			b.WriteString(text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewNotifications() string {
	var b strings.Builder

	filter := "showing unread only"
	if !m.notes.UnreadOnly {
		filter = "showing all"
	}
	b.WriteString(faintStyle.Render(filter))
	b.WriteString("\n\n")

	if len(m.notes.Notifications) == 0 {
		b.WriteString("No notifications\n")
		return b.String()
	}

	for i, n := range m.notes.Notifications {
		mark := "  "
		if !n.IsRead {
			mark = "• "
		}
		line := mark + faintStyle.Render(n.CreatedAt.Local().Format("2006-01-02 15:04")) + "  " + n.Message
		if !n.IsRead {
			line = unreadStyle.Render(line)
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewStatus() string {
	parts := make([]string, 0, len(m.status))
	for _, n := range m.status {
		style := successStyle
		if n.Variant == notify.Error {
			style = errorStyle
		}
		text := style.Render(n.Title)
		if n.Description != "" {
			text += " " + n.Description
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "  ")
}
