package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/ui"
)

// taskItem adapts a display row to bubbles/list.Item.
type taskItem struct {
	row ui.Row
}

func (i taskItem) Title() string       { return i.row.Title }
func (i taskItem) Description() string { return "" }
func (i taskItem) FilterValue() string { return i.row.Title }

func toItems(rows []ui.Row) []list.Item {
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = taskItem{row: r}
	}
	return items
}

// rowDelegate renders one task per line:
// "> ☑ title   e edit · d delete" for the selected row.
type rowDelegate struct{}

func (d rowDelegate) Height() int                               { return 1 }
func (d rowDelegate) Spacing() int                              { return 0 }
func (d rowDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(taskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(it.row, index == m.Index(), m.Width()))
}

func renderRow(r ui.Row, selected bool, width int) string {
	box := mutedStyle.Render(boxUnchecked)
	maxw := ui.MaxTitleWidth
	if width > 0 && width-24 < maxw {
		maxw = max(width-24, 8)
	}
	text := ui.Truncate(r.Title, maxw)
	if r.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	prefix := "  "
	hints := ""
	if selected {
		prefix = selectedStyle.Render(">") + " "
		hints = "   " + helpStyle.Render("space toggle · e edit · d delete")
	}
	return fmt.Sprintf("%s%s %s%s", prefix, box, text, hints)
}
