// Package export writes the task list out as JSON, CSV or PDF.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/idilsaglam/tada/internal/model"
)

// Formats lists the supported format names.
var Formats = []string{"json", "csv", "pdf"}

// Valid reports whether format is one of Formats.
func Valid(format string) bool {
	return slices.Contains(Formats, strings.ToLower(format))
}

// Write renders tasks in format to w.
func Write(w io.Writer, format string, tasks []model.Task) error {
	switch strings.ToLower(format) {
	case "json":
		if tasks == nil {
			tasks = []model.Task{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case "csv":
		return writeCSV(w, tasks)
	case "pdf":
		return writePDF(w, tasks)
	default:
		return fmt.Errorf("unknown format %s", format)
	}
}

func writeCSV(w io.Writer, tasks []model.Task) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "title", "completed", "created_at"})
	for _, t := range tasks {
		_ = cw.Write([]string{t.ID, t.Title, strconv.FormatBool(t.Completed), t.CreatedAt.UTC().Format(time.RFC3339)})
	}
	cw.Flush()
	return cw.Error()
}

func writePDF(w io.Writer, tasks []model.Task) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252; translate so accented titles survive
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("To-Do List", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "To-Do List")
	pdf.Ln(12)

	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.Cell(0, 6, fmt.Sprintf("%d tasks, %d done", len(tasks), done))
	pdf.Ln(8)
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 11)
	for i, t := range tasks {
		box := "[ ]"
		style := ""
		if t.Completed {
			box = "[x]"
			style = "S" // strikeout
		}
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(12, 7, fmt.Sprintf("%d.", i+1), "", 0, "R", false, 0, "")
		pdf.CellFormat(10, 7, box, "", 0, "C", false, 0, "")
		pdf.SetFont("Helvetica", style, 11)
		pdf.MultiCell(0, 7, tr(t.Title), "", "L", false)
	}
	if len(tasks) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.Cell(0, 7, "no items")
	}
	return pdf.Output(w)
}
