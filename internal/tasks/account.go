package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/session"
	"github.com/desertthunder/musicdash/internal/shared"
)

// SignupInput is the signup form.
type SignupInput struct {
	Name     string `validate:"required,max=128"`
	Email    string `validate:"required,mail"`
	Password string `validate:"required,min=8"`
	Confirm  string `validate:"required,eqfield=Password"`
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string `validate:"required,mail"`
	Password string `validate:"required"`
}

// ProfileInput is the profile form. Email is shown read-only but still required.
type ProfileInput struct {
	Name  string `validate:"required,max=128"`
	Email string `validate:"required,mail"`
}

// Account runs the account workflows against an [models.AuthGateway].
type Account struct {
	auth   models.AuthGateway
	logger *log.Logger
}

// NewAccount creates a new [Account]. A nil logger discards output.
func NewAccount(auth models.AuthGateway, logger *log.Logger) *Account {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Account{auth: auth, logger: logger}
}

// Signup validates the form, creates the account and signs in.
func (a *Account) Signup(ctx context.Context, in SignupInput) (*session.Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}

	if _, err := a.auth.Signup(ctx, in.Name, in.Email, in.Password); err != nil {
		if !errors.Is(err, shared.ErrAccountExists) {
			a.logger.Error("signup failed", "email", in.Email, "error", err)
		}
		return nil, fmt.Errorf("signup failed: %w", err)
	}

	a.logger.Info("account created", "email", in.Email)
	return a.Login(ctx, LoginInput{Email: in.Email, Password: in.Password})
}

// Login validates the form and opens a session.
func (a *Account) Login(ctx context.Context, in LoginInput) (*session.Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}

	auth, err := a.auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		a.logger.Error("login failed", "email", in.Email, "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	a.logger.Info("logged in", "user", auth.User.ID)
	return session.New(&auth.User), nil
}

// Logout signs out and ends sess, even when the gateway call fails.
func (a *Account) Logout(ctx context.Context, sess *session.Session) error {
	if _, err := sess.UserID(); err != nil {
		return err
	}
	defer sess.End()

	if err := a.auth.Logout(ctx); err != nil {
		a.logger.Error("logout failed", "error", err)
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

// DeleteAccount deletes the account. The session ends only when the gateway call succeeds.
func (a *Account) DeleteAccount(ctx context.Context, sess *session.Session) error {
	owner, err := sess.UserID()
	if err != nil {
		return err
	}

	if err := a.auth.DeleteAccount(ctx); err != nil {
		a.logger.Error("account deletion failed", "user", owner, "error", err)
		return fmt.Errorf("account deletion failed: %w", err)
	}

	sess.End()
	a.logger.Info("account deleted", "user", owner)
	return nil
}

// UpdateProfile changes the display name.
func (a *Account) UpdateProfile(ctx context.Context, sess *session.Session, in ProfileInput) error {
	if _, err := sess.UserID(); err != nil {
		return err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}

	if err := a.auth.UpdateDisplayName(ctx, in.Name); err != nil {
		a.logger.Error("profile update failed", "error", err)
		return fmt.Errorf("profile update failed: %w", err)
	}

	sess.Rename(in.Name)
	return nil
}

// Resume restores a persisted token and opens a session for it.
func (a *Account) Resume(ctx context.Context, token string) (*session.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, shared.ErrNotAuthenticated
	}
	if err := a.auth.Restore(ctx, token); err != nil {
		return nil, err
	}
	return session.Establish(ctx, a.auth)
}

// Token returns the gateway token for persisting the current session.
func (a *Account) Token() string {
	return a.auth.Token()
}
