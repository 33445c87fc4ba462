package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	units "github.com/docker/go-units"

	"github.com/vulnverified/sitevault/internal/engine"
)

const placeholder = "-"

var headers = []string{"Type", "App / DB", "Domain", "Web", "DB", "Total", "Server", "App ID"}

// HumanSize formats a byte count for display.
func HumanSize(n int64) string {
	return units.BytesSize(float64(n))
}

// dbLabel shows the database name even when it will not be backed up.
func dbLabel(rec engine.ApplicationRecord) string {
	db := rec.DBName
	if db == "" {
		db = placeholder
	} else if !rec.DBAccepted {
		db += " (files only)"
	} else if rec.Credentials != nil && !rec.Credentials.Complete() {
		db += " (incomplete credentials)"
	}
	return rec.App + " / " + db
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// PlanRows returns one row per record plus a totals row, in scan order.
func PlanRows(result *engine.RunResult) [][]string {
	rows := make([][]string, 0, len(result.Records)+1)
	for _, rec := range result.Records {
		rows = append(rows, []string{
			string(rec.Kind),
			dbLabel(rec),
			rec.Domain,
			HumanSize(rec.WebBytes),
			HumanSize(rec.DBBytes),
			HumanSize(rec.TotalBytes()),
			orPlaceholder(rec.ServerID),
			orPlaceholder(rec.AppID),
		})
	}
	s := result.Summary
	rows = append(rows, []string{
		"",
		fmt.Sprintf("%d apps", s.Apps),
		"",
		HumanSize(s.WebBytes),
		HumanSize(s.DBBytes),
		HumanSize(s.TotalBytes),
		"",
		"",
	})
	return rows
}

// WriteTable renders the backup plan as a styled terminal table.
func WriteTable(w io.Writer, result *engine.RunResult, noColor bool) {
	if len(result.Records) == 0 {
		fmt.Fprintln(w, "\nNo matching applications found.")
		return
	}

	rows := PlanRows(result)

	fmt.Fprintln(w)

	if noColor {
		writeSimpleTable(w, rows)
		return
	}

	last := len(rows) - 1
	t := table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			case row == last:
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		})

	for _, row := range rows {
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

func writeSimpleTable(w io.Writer, rows [][]string) {
	// Calculate column widths.
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
	separator := func() {
		for i, width := range widths {
			if i > 0 {
				fmt.Fprint(w, "-+-")
			}
			fmt.Fprint(w, strings.Repeat("-", width))
		}
		fmt.Fprintln(w)
	}

	writeRow(headers)
	separator()
	for i, row := range rows {
		// Totals row.
		if i == len(rows)-1 {
			separator()
		}
		writeRow(row)
	}
}
