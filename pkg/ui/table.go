package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableColumn describes one column; Width is a minimum, cells wider than
// MaxWidth (when set) are cut with an ellipsis
type TableColumn struct {
	Header   string
	Width    int
	MaxWidth int
	Align    string // "left", "right", "center"
}

// Table collects rows and renders them with a header rule
type Table struct {
	Columns []TableColumn
	Rows    [][]string
}

func NewTable(columns []TableColumn) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row; missing cells render empty, extra cells are dropped
func (t *Table) AddRow(cells []string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Render returns the table followed by a newline, or "" without columns
func (t *Table) Render() string {
	if len(t.Columns) == 0 {
		return ""
	}

	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = t.fit(i, col.Header, "left")
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		rows[r] = make([]string, len(row))
		for i, cell := range row {
			rows[r][i] = t.fit(i, cell, t.Columns[i].Align)
		}
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleTableBorder).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return StyleTableHeader.PaddingRight(2)
			case row%2 == 0:
				return StyleTableRow.PaddingRight(2)
			default:
				return StyleTableRowAlt.PaddingRight(2)
			}
		})

	return tbl.Render() + "\n"
}

// fit truncates and pads a cell to its column's width
func (t *Table) fit(col int, s, align string) string {
	column := t.Columns[col]
	if column.MaxWidth > 0 && lipgloss.Width(s) > column.MaxWidth {
		s = truncate(s, column.MaxWidth)
	}
	width := column.Width
	for _, row := range t.Rows {
		if w := lipgloss.Width(row[col]); w > width {
			width = w
		}
	}
	if lipgloss.Width(column.Header) > width {
		width = lipgloss.Width(column.Header)
	}
	if column.MaxWidth > 0 && width > column.MaxWidth {
		width = column.MaxWidth
	}
	return pad(s, width, align)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 1 || len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func pad(s string, width int, align string) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case "right":
		return strings.Repeat(" ", gap) + s
	case "center":
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

// RenderKeyValue renders "key: value" with the key highlighted
func RenderKeyValue(key, value string) string {
	return fmt.Sprintf("%s: %s", StyleAccent.Render(key), value)
}
