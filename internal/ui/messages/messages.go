package messages

import (
	"github.com/fragmede/passage/internal/api"
	"github.com/fragmede/passage/internal/history"
	"github.com/fragmede/passage/internal/session"
)

// FormMode selects what the auth form submits to.
type FormMode int

const (
	ModeLogin FormMode = iota
	ModeRegister
	ModeProvider
)

func (m FormMode) String() string {
	switch m {
	case ModeLogin:
		return "Login"
	case ModeRegister:
		return "Register"
	case ModeProvider:
		return "Provider"
	}
	return "?"
}

// View transition messages.
type (
	GoBackMsg     struct{}
	SwitchModeMsg struct{ Mode FormMode }
)

// Data messages.
type (
	AuthResultMsg struct {
		Mode   FormMode
		Result api.AuthResult
		User   *session.User
		Err    error
	}

	UserChangedMsg struct {
		User *session.User
	}

	FetchResultMsg struct {
		Err error
	}

	SignOutResultMsg struct {
		Err error
	}

	HistoryLoadedMsg struct {
		Entries []history.Entry
		Err     error
	}

	// StatusMsg sets the status bar text from a child view.
	StatusMsg struct {
		Text    string
		IsError bool
	}
)
