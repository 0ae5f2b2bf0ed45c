package ui

import (
	"errors"

	"github.com/desertthunder/musicdash/internal/shared"
	"github.com/desertthunder/musicdash/internal/tasks"
)

// Kind separates notices the user should read differently.
type Kind int

const (
	KindSuccess Kind = iota
	KindInfo
	KindError
)

// Notice is a one-line message for the terminal.
type Notice struct {
	Kind    Kind
	Message string
}

func (n Notice) String() string {
	style, mark := styles.notice(n.Kind)
	return style.Render(mark + " " + n.Message)
}

// Success renders a success notice.
func Success(msg string) string {
	return Notice{Kind: KindSuccess, Message: msg}.String()
}

// Info renders an informational notice.
func Info(msg string) string {
	return Notice{Kind: KindInfo, Message: msg}.String()
}

// Warn renders a warning line.
func Warn(msg string) string {
	return styles.warn.Render("! " + msg)
}

// Help renders a hint line.
func Help(msg string) string {
	return styles.help.Render(msg)
}

// ForOutcome picks the notice for o. Informational outcomes are never shown as errors.
func ForOutcome(o tasks.Outcome) Notice {
	if o.Informational() {
		return Notice{Kind: KindInfo, Message: o.Message()}
	}
	return Notice{Kind: KindSuccess, Message: o.Message()}
}

// Outcome renders the notice for o.
func Outcome(o tasks.Outcome) string {
	return ForOutcome(o).String()
}

// ForError picks the user-facing notice for err.
func ForError(err error) Notice {
	return Notice{Kind: KindError, Message: ErrorMessage(err)}
}

// Error renders the notice for err.
func Error(err error) string {
	return ForError(err).String()
}

// ErrorMessage is what the user sees for err. Validation messages pass through untouched.
func ErrorMessage(err error) string {
	var verr *shared.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, shared.ErrPlaylistNotFound):
		return "Playlist not found"
	case errors.Is(err, shared.ErrDocumentNotFound):
		return "Not found"
	case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrSessionEnded), errors.Is(err, shared.ErrTokenExpired):
		return "Please log in first"
	case errors.Is(err, shared.ErrAccountExists):
		return "An account with this email already exists"
	case errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, shared.ErrGateway):
		return "The music service is unavailable, please try again"
	default:
		return err.Error()
	}
}
