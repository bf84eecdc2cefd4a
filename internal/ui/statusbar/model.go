package statusbar

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/passage/internal/session"
	"github.com/fragmede/passage/internal/ui/messages"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF"))

	activeTabStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#3ECF8E")).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#555555")).
				Foreground(lipgloss.Color("#CCCCCC")).
				Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	signedOutStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	errorTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FF5555")).
			Padding(0, 1)
)

var modes = []messages.FormMode{messages.ModeLogin, messages.ModeRegister, messages.ModeProvider}

// Model is the status bar at the bottom of the screen.
type Model struct {
	width      int
	activeMode messages.FormMode
	user       *session.User
	statusText string
	isError    bool
}

// New creates a new status bar.
func New() Model {
	return Model{activeMode: messages.ModeLogin}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetMode highlights the active form mode.
func (m *Model) SetMode(mode messages.FormMode) {
	m.activeMode = mode
}

// SetUser sets the user mirrored from the session store.
func (m *Model) SetUser(u *session.User) {
	m.user = u
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isError bool) {
	m.statusText = text
	m.isError = isError
}

// Update is a no-op for the status bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// UserLabel is what the bar shows for u.
func UserLabel(u *session.User) string {
	switch {
	case u == nil:
		return "signed out"
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

// View renders the status bar.
func (m Model) View() string {
	var tabsStr string
	for _, mode := range modes {
		if mode == m.activeMode {
			tabsStr += activeTabStyle.Render(mode.String())
		} else {
			tabsStr += inactiveTabStyle.Render(mode.String())
		}
	}

	var right string
	if m.statusText != "" {
		if m.isError {
			right += errorTextStyle.Render(m.statusText)
		} else {
			right += statusTextStyle.Render(m.statusText)
		}
	}
	if m.user == nil {
		right += signedOutStyle.Render(UserLabel(nil))
	} else {
		right += userStyle.Render(UserLabel(m.user))
	}

	tabsWidth := lipgloss.Width(tabsStr)
	rightWidth := lipgloss.Width(right)
	gap := m.width - tabsWidth - rightWidth
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, tabsStr, mid, right)
}
