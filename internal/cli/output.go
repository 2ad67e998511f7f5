package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/notify"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	lowStyle     = cellStyle.Foreground(lipgloss.Color("196"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	borderColor  = lipgloss.Color("240")
)

// NoticePrinter writes notices to w, one per line.
func NoticePrinter(w io.Writer) notify.Notifier {
	return notify.Func(func(n notify.Notice) {
		style := successStyle
		if n.Variant == notify.Error {
			style = errorStyle
		}
		if n.Description == "" {
			fmt.Fprintln(w, style.Render(n.Title))
			return
		}
		fmt.Fprintf(w, "%s: %s\n", style.Render(n.Title), n.Description)
	})
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func renderItems(w io.Writer, items []model.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found")
		return
	}

	t := newTable("Name", "SKU", "Quantity", "Category", "Location", "Status")
	for i := range items {
		item := &items[i]
		t.Row(item.Name, item.SKU, strconv.Itoa(item.Quantity),
			orDash(item.CategoryName()), orDash(item.LocationName()), item.Status())
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case col == 5 && row >= 0 && row < len(items) && items[row].LowStock():
			return lowStyle
		default:
			return cellStyle
		}
	})
	fmt.Fprintln(w, t.Render())
}

func renderItem(w io.Writer, item *model.Item) {
	t := newTable("Field", "Value")
	t.Row("ID", item.ID.String())
	t.Row("Name", item.Name)
	t.Row("SKU", item.SKU)
	t.Row("Description", orDash(item.DescriptionText()))
	t.Row("Quantity", strconv.Itoa(item.Quantity))
	t.Row("Min quantity", strconv.Itoa(item.MinQuantity))
	t.Row("Category", orDash(item.CategoryName()))
	t.Row("Location", orDash(item.LocationName()))
	t.Row("Status", item.Status())
	t.Row("Created", item.CreatedAt.Local().Format("2006-01-02 15:04"))
	t.Row("Updated", item.UpdatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintln(w, t.Render())
}

func renderNotifications(w io.Writer, list []model.Notification) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No notifications")
		return
	}

	t := newTable("", "Created", "Message", "ID")
	for _, n := range list {
		mark := "•"
		if n.IsRead {
			mark = " "
		}
		t.Row(mark, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message, n.ID.String())
	}
	fmt.Fprintln(w, t.Render())
}

func renderFacets(w io.Writer, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintln(w, faintStyle.Render(label+": "+strings.Join(values, ", ")))
}
