package historyview

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/passage/internal/history"
	"github.com/fragmede/passage/internal/ui/messages"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3ECF8E")).Bold(true).Padding(1, 0)
	rowStyle      = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#333333")).Padding(0, 1)
	eventStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3ECF8E")).Bold(true)
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)

// Model lists the most recent session history entries.
type Model struct {
	entries     []history.Entry
	selectedIdx int
	err         error
	loaded      bool
	db          *history.DB
	limit       int
	width       int
	height      int
}

// New creates a history view reading up to limit entries.
func New(db *history.DB, limit int) Model {
	return Model{db: db, limit: limit}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Load returns a command that reads the entries.
func (m Model) Load() tea.Cmd {
	db, limit := m.db, m.limit
	return func() tea.Msg {
		entries, err := db.Recent(context.Background(), limit)
		return messages.HistoryLoadedMsg{Entries: entries, Err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.HistoryLoadedMsg:
		m.loaded = true
		m.entries = msg.Entries
		m.err = msg.Err
		m.selectedIdx = 0
		return m, loadedStatus(msg)
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.selectedIdx < len(m.entries)-1 {
				m.selectedIdx++
			}
		case "k", "up":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "r":
			return m, m.Load()
		case "esc", "q":
			return m, func() tea.Msg { return messages.GoBackMsg{} }
		}
	}
	return m, nil
}

func loadedStatus(msg messages.HistoryLoadedMsg) tea.Cmd {
	status := messages.StatusMsg{Text: fmt.Sprintf("%d history entries", len(msg.Entries))}
	if msg.Err != nil {
		status = messages.StatusMsg{Text: "History unavailable", IsError: true}
	}
	return func() tea.Msg { return status }
}

// View renders the list.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Session history"))
	sb.WriteString("\n")

	switch {
	case m.err != nil:
		sb.WriteString(errorStyle.Render(m.err.Error()))
	case !m.loaded:
		sb.WriteString(metaStyle.Render("Loading..."))
	case len(m.entries) == 0:
		sb.WriteString(metaStyle.Render("Nothing recorded yet."))
	}

	for i, e := range m.entries {
		line := FormatEntry(e)
		if i == m.selectedIdx {
			sb.WriteString(selectedStyle.Render(line))
		} else {
			sb.WriteString(rowStyle.Render(line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(metaStyle.Render("j/k move  r reload  esc back"))
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(sb.String())
}

// FormatEntry renders one entry on a single line.
func FormatEntry(e history.Entry) string {
	what := string(e.Source)
	if e.Event != "" {
		what = string(e.Event)
	}
	who := "signed out"
	if e.UserID != "" {
		who = e.UserID
		if e.Email != "" {
			who = fmt.Sprintf("%s <%s>", e.UserID, e.Email)
		}
	}
	return fmt.Sprintf("%s  %s  %s",
		metaStyle.Render(e.At.Format("2006-01-02 15:04:05")),
		eventStyle.Render(fmt.Sprintf("%-15s", what)),
		who)
}
