package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/passage/internal/api"
	"github.com/fragmede/passage/internal/config"
	"github.com/fragmede/passage/internal/history"
	"github.com/fragmede/passage/internal/provider"
	"github.com/fragmede/passage/internal/session"
	"github.com/fragmede/passage/internal/ui/historyview"
	"github.com/fragmede/passage/internal/ui/login"
	"github.com/fragmede/passage/internal/ui/messages"
	"github.com/fragmede/passage/internal/ui/statusbar"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewForm ViewType = iota
	ViewHistory
)

// App is the root Bubble Tea model.
type App struct {
	// View state
	activeView    ViewType
	previousViews []ViewType

	// Child models
	form      login.Model
	historyUI historyview.Model
	statusBar statusbar.Model

	// Shared state
	cfg      config.Config
	client   *api.Client
	provider *provider.Client
	store    *session.Store
	history  *history.DB

	unwatch func()

	// Dimensions
	width  int
	height int

	// Set once the program exists; store observers push through it.
	program *tea.Program
}

// NewApp creates the root application model. The store is owned by the
// caller; the app only watches it.
func NewApp(cfg config.Config, client *api.Client, prov *provider.Client, store *session.Store, db *history.DB) *App {
	return &App{
		activeView: ViewForm,
		form:       login.New(messages.ModeLogin, client, prov),
		historyUI:  historyview.New(db, cfg.HistoryPreview),
		statusBar:  statusbar.New(),
		cfg:        cfg,
		client:     client,
		provider:   prov,
		store:      store,
		history:    db,
	}
}

// SetProgram stores the tea.Program reference used by store observers.
func (a *App) SetProgram(p *tea.Program) {
	a.program = p
}

// Init starts the application.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.watchStore())
}

// Close stops forwarding store updates.
func (a *App) Close() {
	if a.unwatch != nil {
		a.unwatch()
	}
}

// watchStore forwards store writes into the program and subscribes the
// store to the provider. It runs as a command so Program.Send never blocks
// before the event loop is up.
func (a *App) watchStore() tea.Cmd {
	store := a.store
	program := a.program
	if program == nil {
		return func() tea.Msg { return messages.UserChangedMsg{User: store.User()} }
	}
	a.unwatch = store.Watch(func(u *session.User) {
		program.Send(messages.UserChangedMsg{User: u})
	})
	return func() tea.Msg {
		store.Subscribe()
		return messages.UserChangedMsg{User: store.User()}
	}
}

func (a *App) fetchUser() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		return messages.FetchResultMsg{Err: store.FetchUser(context.Background())}
	}
}

func (a *App) signOut() tea.Cmd {
	prov := a.provider
	return func() tea.Msg {
		return messages.SignOutResultMsg{Err: prov.SignOut(context.Background())}
	}
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentHeight := msg.Height - 2 // Reserve help line and status bar.
		a.form.SetSize(msg.Width, contentHeight)
		a.historyUI.SetSize(msg.Width, contentHeight)
		a.statusBar.SetSize(msg.Width)
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, Keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, Keys.SwitchMode):
			if a.activeView != ViewForm {
				return a, nil
			}
			next := (a.form.Mode() + 1) % 3
			a.statusBar.SetMode(next)
			var cmd tea.Cmd
			a.form, cmd = a.form.Update(messages.SwitchModeMsg{Mode: next})
			return a, cmd
		case key.Matches(msg, Keys.Fetch):
			a.statusBar.SetStatus("Fetching user...", false)
			return a, a.fetchUser()
		case key.Matches(msg, Keys.SignOut):
			a.statusBar.SetStatus("Signing out...", false)
			return a, a.signOut()
		case key.Matches(msg, Keys.History):
			if a.activeView == ViewHistory {
				return a, nil
			}
			a.pushView(ViewHistory)
			return a, a.historyUI.Load()
		case key.Matches(msg, Keys.Back):
			if a.activeView != ViewForm {
				return a, a.goBack()
			}
		}

	case messages.GoBackMsg:
		return a, a.goBack()

	case messages.UserChangedMsg:
		a.statusBar.SetUser(msg.User)
		return a, nil

	case messages.FetchResultMsg:
		if msg.Err != nil {
			a.statusBar.SetStatus("Fetch failed: "+msg.Err.Error(), true)
		} else {
			a.statusBar.SetStatus("User refreshed", false)
			// Writes from FetchUser reach the bar through the store observer;
			// without a program there is no observer.
			if a.program == nil {
				a.statusBar.SetUser(a.store.User())
			}
		}
		return a, nil

	case messages.SignOutResultMsg:
		if msg.Err != nil {
			a.statusBar.SetStatus("Signed out locally: "+msg.Err.Error(), true)
		} else {
			a.statusBar.SetStatus("Signed out", false)
		}
		return a, nil

	case messages.AuthResultMsg:
		if msg.Err != nil {
			a.statusBar.SetStatus(msg.Mode.String()+" failed", true)
		} else {
			a.statusBar.SetStatus(msg.Mode.String()+" ok", false)
		}
		// The form owns the result even when another view is showing.
		var cmd tea.Cmd
		a.form, cmd = a.form.Update(msg)
		return a, cmd

	case messages.HistoryLoadedMsg:
		var cmd tea.Cmd
		a.historyUI, cmd = a.historyUI.Update(msg)
		return a, cmd

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
		return a, nil
	}

	// Route to active view.
	var cmd tea.Cmd
	switch a.activeView {
	case ViewForm:
		a.form, cmd = a.form.Update(msg)
		cmds = append(cmds, cmd)
	case ViewHistory:
		a.historyUI, cmd = a.historyUI.Update(msg)
		cmds = append(cmds, cmd)
	}

	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewForm:
		content = a.form.View()
	case ViewHistory:
		content = a.historyUI.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, HelpLine(), a.statusBar.View())
}

// HelpLine renders the global key bindings.
func HelpLine() string {
	var parts []string
	for _, b := range Keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return DimStyle.Render(strings.Join(parts, "  "))
}

func (a *App) pushView(v ViewType) {
	a.previousViews = append(a.previousViews, a.activeView)
	a.activeView = v
}

func (a *App) goBack() tea.Cmd {
	if len(a.previousViews) > 0 {
		a.activeView = a.previousViews[len(a.previousViews)-1]
		a.previousViews = a.previousViews[:len(a.previousViews)-1]
	}
	return nil
}
