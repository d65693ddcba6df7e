package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

// --- TUI Model ---

type reviewRow struct {
	group int
	index int
}

type pendingAction struct {
	prompt string
	run    func() (int, int64, error)
}

type duplicatesModel struct {
	ctx     context.Context
	table   table.Model
	groups  []duplicateGroup
	rows    []reviewRow
	pending *pendingAction
	status  string

	deleted   int
	reclaimed int64
}

func newDuplicatesModel(ctx context.Context, groups []duplicateGroup) duplicatesModel {
	columns := []table.Column{
		{Title: "Set", Width: 5},
		{Title: "File", Width: 60},
		{Title: "Size", Width: 10},
		{Title: "Modified", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorMuted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(ui.ColorDefault).
		Background(ui.ColorPrimary).
		Bold(true)
	t.SetStyles(s)

	m := duplicatesModel{ctx: ctx, table: t, groups: groups}
	m.refresh()
	return m
}

// refresh rebuilds the table rows, dropping sets with fewer than two files
func (m *duplicatesModel) refresh() {
	var kept []duplicateGroup
	for _, g := range m.groups {
		if len(g.assets) >= 2 {
			kept = append(kept, g)
		}
	}
	m.groups = kept

	m.rows = m.rows[:0]
	var rows []table.Row
	for gi, g := range m.groups {
		for ai, a := range g.assets {
			m.rows = append(m.rows, reviewRow{group: gi, index: ai})
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", gi+1),
				ui.TruncatePath(a.Path(), 60),
				ui.FormatBytes(a.Asset.FileProperties.Size),
				a.Asset.FileProperties.ModifiedAt.Format("2006-01-02"),
			})
		}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m duplicatesModel) selected() (reviewRow, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.rows) {
		return reviewRow{}, false
	}
	return m.rows[c], true
}

func (m duplicatesModel) Init() tea.Cmd { return nil }

func (m duplicatesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && m.pending != nil {
		switch key.String() {
		case "y", "Y":
			action := m.pending
			m.pending = nil
			n, bytes, err := action.run()
			m.deleted += n
			m.reclaimed += bytes
			if err != nil {
				m.status = ui.FormatError(err.Error())
			} else {
				m.status = ui.FormatSuccess(fmt.Sprintf("Deleted %d file(s)", n))
			}
			m.refresh()
			if len(m.rows) == 0 {
				return m, tea.Quit
			}
		default:
			m.pending = nil
			m.status = ui.FormatMuted("Cancelled")
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			row, ok := m.selected()
			if !ok {
				return m, nil
			}
			g := m.groups[row.group]
			if !g.exact {
				m.status = ui.FormatWarning("Similar images differ; delete them one by one with x")
				return m, nil
			}
			keep := g.assets[row.index]
			m.pending = &pendingAction{
				prompt: fmt.Sprintf("Keep %s and delete %d other copies? (y/n)", keep.Asset.FileName, len(g.assets)-1),
				run:    keepOnly(m.ctx, m.groups, row.group, row.index),
			}
			return m, nil

		case "x", "delete":
			row, ok := m.selected()
			if !ok {
				return m, nil
			}
			target := m.groups[row.group].assets[row.index]
			m.pending = &pendingAction{
				prompt: fmt.Sprintf("Delete %s? (y/n)", target.Path()),
				run:    deleteOne(m.ctx, m.groups, row.group, row.index),
			}
			return m, nil
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// keepOnly deletes every copy in groups[group] except the one at index
func keepOnly(ctx context.Context, groups []duplicateGroup, group, index int) func() (int, int64, error) {
	return func() (int, int64, error) {
		g := &groups[group]
		keep := g.assets[index]
		var others []domain.CatalogedAsset
		var bytes int64
		for i, a := range g.assets {
			if i != index {
				others = append(others, a)
				bytes += a.Asset.FileProperties.Size
			}
		}
		n, err := duplicatesService.DeleteDuplicates(ctx, keep, others)
		if n == len(others) {
			g.assets = []domain.CatalogedAsset{keep}
		} else {
			bytes = 0
		}
		return n, bytes, err
	}
}

// deleteOne deletes a single file of groups[group]
func deleteOne(ctx context.Context, groups []duplicateGroup, group, index int) func() (int, int64, error) {
	return func() (int, int64, error) {
		g := &groups[group]
		target := g.assets[index]
		n, err := moveService.Delete(ctx, []domain.CatalogedAsset{target})
		if n == 1 {
			g.assets = append(g.assets[:index:index], g.assets[index+1:]...)
			return 1, target.Asset.FileProperties.Size, err
		}
		return n, 0, err
	}
}

func (m duplicatesModel) View() string {
	footer := ui.StyleMuted.Render(" [enter] Keep only this  [x] Delete file  [q] Quit")
	if m.pending != nil {
		footer = ui.StyleWarning.Render(" " + m.pending.prompt)
	}

	status := ""
	if m.status != "" {
		status = " " + m.status + "\n"
	}

	return "\n" +
		ui.StyleTitle.Render(fmt.Sprintf(" %s Duplicate Review (%d sets) ", ui.IconPhoto, len(m.groups))) + "\n\n" +
		m.table.View() + "\n\n" +
		status +
		footer + "\n"
}
