package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table collects rows for a rounded lipgloss table. Rows added with
// AccentRow are drawn in yellow, which the versions listing uses for
// prereleases.
type Table struct {
	Title   string
	Headers []string
	NoColor bool

	rows   [][]string
	accent map[int]bool
}

func (t *Table) Row(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *Table) AccentRow(cells ...string) {
	if t.accent == nil {
		t.accent = make(map[int]bool)
	}
	t.accent[len(t.rows)] = true
	t.Row(cells...)
}

func (t *Table) Len() int { return len(t.rows) }

// String renders the title, if any, above the table.
func (t *Table) String() string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	header, accent, border := cell.Bold(true), cell.Foreground(lipgloss.Color("3")), lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	title := lipgloss.NewStyle().Bold(true)
	if t.NoColor {
		header, accent, border, title = cell, cell, lipgloss.NewStyle(), lipgloss.NewStyle()
	}

	tbl := table.New().
		Headers(t.Headers...).
		Rows(t.rows...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case t.accent[row]:
				return accent
			}
			return cell
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(title.Render(t.Title))
		b.WriteByte('\n')
	}
	b.WriteString(tbl.String())
	return b.String()
}
