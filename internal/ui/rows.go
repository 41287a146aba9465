package ui

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/idilsaglam/tada/internal/model"
)

// MaxTitleWidth is where row titles get truncated.
const MaxTitleWidth = 80

// Row is the display form of one task.
type Row struct {
	Index     int // 1-based position in the collection
	ID        string
	Title     string
	Completed bool // rendered struck through
}

// Rows derives display rows from a snapshot, preserving its order.
func Rows(tasks []model.Task) []Row {
	rows := make([]Row, len(tasks))
	for i, t := range tasks {
		rows[i] = Row{Index: i + 1, ID: t.ID, Title: t.Title, Completed: t.Completed}
	}
	return rows
}

// Stats counts completed and pending rows.
func Stats(rows []Row) (done, pending int) {
	for _, r := range rows {
		if r.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// Truncate shortens s to width terminal cells, ending with "...".
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

// Line renders "<idx>. <box> <title>" with the current theme.
func (r Row) Line() string {
	t := Current()
	idx := fmt.Sprintf("%2d.", r.Index)
	box, color := t.BoxUnchecked, t.Muted
	title := Truncate(r.Title, MaxTitleWidth)
	if r.Completed {
		box, color = t.BoxChecked, t.Success
		title = C(t.Strike, title)
	}
	return fmt.Sprintf("%s %s %s", C(dim, idx), C(color, box), title)
}
