package login

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/passage/internal/api"
	"github.com/fragmede/passage/internal/provider"
	"github.com/fragmede/passage/internal/render"
	"github.com/fragmede/passage/internal/ui/messages"
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3ECF8E"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	resultStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3ECF8E")).Bold(true).
			Padding(1, 0)
)

const maxResultLen = 400

const (
	fieldEmail = iota
	fieldPassword
	fieldName
)

// Model is the login / register form.
type Model struct {
	mode       messages.FormMode
	inputs     []textinput.Model
	focusIndex int
	err        string
	result     string
	submitting bool
	client     *api.Client
	provider   *provider.Client
	width      int
	height     int
}

// New creates a form in the given mode.
func New(mode messages.FormMode, client *api.Client, prov *provider.Client) Model {
	emailInput := textinput.New()
	emailInput.Placeholder = "email"
	emailInput.Focus()
	emailInput.Width = 30

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.Width = 30

	nameInput := textinput.New()
	nameInput.Placeholder = "name (optional)"
	nameInput.Width = 30

	return Model{
		mode:     mode,
		inputs:   []textinput.Model{emailInput, passwordInput, nameInput},
		client:   client,
		provider: prov,
	}
}

// Mode returns the current form mode.
func (m Model) Mode() messages.FormMode {
	return m.mode
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m Model) fieldCount() int {
	if m.mode == messages.ModeRegister {
		return 3
	}
	return 2
}

func (m *Model) focus(i int) {
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	m.focusIndex = i
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.SwitchModeMsg:
		m.mode = msg.Mode
		m.err = ""
		m.result = ""
		if m.focusIndex >= m.fieldCount() {
			m.focus(0)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			m.focus((m.focusIndex + 1) % m.fieldCount())
			return m, nil
		case "shift+tab", "up":
			m.focus((m.focusIndex - 1 + m.fieldCount()) % m.fieldCount())
			return m, nil
		case "enter":
			if m.submitting {
				return m, nil
			}
			email := strings.TrimSpace(m.inputs[fieldEmail].Value())
			password := m.inputs[fieldPassword].Value()
			if email == "" || password == "" {
				m.err = "Email and password required"
				return m, nil
			}
			m.submitting = true
			m.err = ""
			m.result = ""
			return m, m.submit(email, password, strings.TrimSpace(m.inputs[fieldName].Value()))
		}

	case messages.AuthResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.result = describeResult(msg)
		m.inputs[fieldPassword].SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m Model) submit(email, password, name string) tea.Cmd {
	mode := m.mode
	client := m.client
	prov := m.provider
	return func() tea.Msg {
		ctx := context.Background()
		switch mode {
		case messages.ModeRegister:
			userData := map[string]string{"email": email, "password": password}
			if name != "" {
				userData["name"] = name
			}
			res, err := client.Register(ctx, userData)
			return messages.AuthResultMsg{Mode: mode, Result: res, Err: err}
		case messages.ModeProvider:
			s, err := prov.SignInWithPassword(ctx, email, password)
			if err != nil {
				return messages.AuthResultMsg{Mode: mode, Err: err}
			}
			return messages.AuthResultMsg{Mode: mode, User: s.User}
		default:
			res, err := client.Login(ctx, email, password)
			return messages.AuthResultMsg{Mode: mode, Result: res, Err: err}
		}
	}
}

func describeResult(msg messages.AuthResultMsg) string {
	if msg.Mode == messages.ModeProvider {
		if msg.User == nil {
			return "Signed in"
		}
		return "Signed in as " + firstNonEmpty(msg.User.Email, msg.User.ID)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, msg.Result, "", "  "); err != nil {
		buf.Reset()
		buf.Write(msg.Result)
	}
	return render.Truncate(buf.String(), maxResultLen)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// View renders the form.
func (m Model) View() string {
	var sb strings.Builder

	switch m.mode {
	case messages.ModeRegister:
		sb.WriteString(titleStyle.Render("Create an account"))
	case messages.ModeProvider:
		sb.WriteString(titleStyle.Render("Sign in with the auth provider"))
	default:
		sb.WriteString(titleStyle.Render("Log in"))
	}
	sb.WriteString("\n\n")

	labels := []string{"Email:", "Password:", "Name:"}
	for i := 0; i < m.fieldCount(); i++ {
		sb.WriteString(labelStyle.Render(labels[i]))
		sb.WriteString("\n")
		sb.WriteString(m.inputs[i].View())
		sb.WriteString("\n\n")
	}

	if m.err != "" {
		sb.WriteString(errorStyle.Render(render.Wrap(m.err, 50)))
		sb.WriteString("\n\n")
	}
	if m.result != "" {
		sb.WriteString(resultStyle.Render(m.result))
		sb.WriteString("\n\n")
	}

	if m.submitting {
		sb.WriteString("Submitting...")
	} else {
		sb.WriteString(focusedStyle.Render("Enter") + " to submit, " + focusedStyle.Render("Tab") + " next field")
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
