package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/services"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

// runCatalogWithProgress runs the catalog behind a live progress view.
// The view is fed by the change stream; q or ctrl+c cancels the run.
func runCatalogWithProgress(ctx context.Context, changes <-chan domain.CatalogChange) (*services.CatalogResponse, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newCatalogModel(changes, cancel))
	go func() {
		resp, err := catalogService.Execute(runCtx, catalogRequest())
		p.Send(catalogDoneMsg{resp: resp, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(catalogModel)
	return m.resp, m.err
}

// --- TUI Model ---

type changeMsg domain.CatalogChange

type catalogDoneMsg struct {
	resp *services.CatalogResponse
	err  error
}

type catalogModel struct {
	changes <-chan domain.CatalogChange
	cancel  context.CancelFunc
	spinner spinner.Model
	bar     progress.Model

	folder      string
	folderIndex int
	folderTotal int
	created     int
	updated     int
	deleted     int
	recent      []string
	status      string
	cancelling  bool

	resp *services.CatalogResponse
	err  error
}

const catalogRecentLines = 5

func newCatalogModel(changes <-chan domain.CatalogChange, cancel context.CancelFunc) catalogModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.StylePrimary

	return catalogModel{
		changes: changes,
		cancel:  cancel,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		status:  "Scanning asset directories...",
	}
}

func waitForChange(changes <-chan domain.CatalogChange) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-changes
		if !ok {
			return nil
		}
		return changeMsg(change)
	}
}

func (m catalogModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForChange(m.changes))
}

func (m catalogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling {
				m.cancelling = true
				m.status = "Cancelling, saving progress..."
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		width := msg.Width - 10
		if width > 60 {
			width = 60
		}
		if width > 10 {
			m.bar.Width = width
		}
		return m, nil

	case changeMsg:
		m.apply(domain.CatalogChange(msg))
		return m, waitForChange(m.changes)

	case catalogDoneMsg:
		m.resp = msg.resp
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *catalogModel) apply(change domain.CatalogChange) {
	if change.Reason.IsAssetChange() {
		if line, ok := changeLine(change); ok {
			m.pushRecent(line)
		}
	}

	switch change.Reason {
	case domain.FolderInspectionStarted:
		m.folder = change.Message
		m.folderIndex = change.Processed
		m.folderTotal = change.Total
		if !m.cancelling {
			m.status = "Inspecting folders..."
		}
	case domain.AssetCreated:
		m.created++
	case domain.AssetUpdated:
		m.updated++
	case domain.AssetDeleted:
		m.deleted++
	case domain.BackupCreationStarted, domain.BackupUpdateStarted:
		m.status = ui.IconBackup + " Writing backup..."
	case domain.BackupCompleted:
		m.status = ui.IconBackup + " Backup written"
	}
}

func (m *catalogModel) pushRecent(line string) {
	m.recent = append(m.recent, line)
	if len(m.recent) > catalogRecentLines {
		m.recent = m.recent[len(m.recent)-catalogRecentLines:]
	}
}

func (m catalogModel) percent() float64 {
	if m.folderTotal == 0 {
		return 0
	}
	return float64(m.folderIndex) / float64(m.folderTotal)
}

func (m catalogModel) View() string {
	var s strings.Builder

	s.WriteString("\n")
	s.WriteString(ui.StyleTitle.Render(" " + ui.IconPhoto + " Cataloging "))
	s.WriteString("\n\n")

	s.WriteString(" " + m.spinner.View() + " " + m.status + "\n\n")
	s.WriteString(" " + m.bar.ViewAs(m.percent()))
	s.WriteString(ui.StyleMuted.Render(fmt.Sprintf("  %d/%d folders", m.folderIndex, m.folderTotal)))
	s.WriteString("\n")
	if m.folder != "" {
		s.WriteString(" " + ui.StyleMuted.Render(ui.TruncatePath(m.folder, 70)) + "\n")
	}
	s.WriteString("\n")

	s.WriteString(fmt.Sprintf(" %s  %s  %s\n\n",
		ui.StyleSuccess.Render(fmt.Sprintf("+%d", m.created)),
		ui.StyleWarning.Render(fmt.Sprintf("~%d", m.updated)),
		ui.StyleError.Render(fmt.Sprintf("-%d", m.deleted)),
	))

	for _, line := range m.recent {
		s.WriteString(" " + line + "\n")
	}

	s.WriteString("\n")
	s.WriteString(ui.StyleMuted.Render(" [q] Cancel"))
	s.WriteString("\n")

	return s.String()
}
