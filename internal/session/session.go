// Package session holds the authenticated user for one dashboard session.
//
// A [Session] is created once, passed explicitly to every owner-scoped operation, and ended by
// logout or account deletion. After [Session.End] every operation fails with [shared.ErrSessionEnded].
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
)

// Session is the current user of one page or CLI session.
type Session struct {
	mu    sync.RWMutex
	user  *models.User
	ended bool
}

// New creates a session for user. A nil user yields an anonymous session.
func New(user *models.User) *Session {
	if user == nil {
		return &Session{}
	}
	u := *user
	return &Session{user: &u}
}

// Establish resolves the current user from auth and opens a session for it.
func Establish(ctx context.Context, auth models.AuthGateway) (*Session, error) {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}
	return New(user), nil
}

// UserID returns the owner identifier every gateway call is scoped to.
func (s *Session) UserID() (string, error) {
	if s == nil {
		return "", shared.ErrNotAuthenticated
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.ended:
		return "", shared.ErrSessionEnded
	case s.user == nil || s.user.ID == "":
		return "", shared.ErrNotAuthenticated
	}
	return s.user.ID, nil
}

// User returns a copy of the session's user.
func (s *Session) User() (models.User, error) {
	if _, err := s.UserID(); err != nil {
		return models.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.user, nil
}

// Rename updates the cached display name after a successful profile update.
func (s *Session) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.user.Name = name
	}
}

// Active reports whether the session can still issue operations.
func (s *Session) Active() bool {
	_, err := s.UserID()
	return err == nil
}

// End terminates the session. It is safe to call more than once.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
}
