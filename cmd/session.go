package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/musicdash/internal/session"
	"github.com/desertthunder/musicdash/internal/shared"
	"github.com/desertthunder/musicdash/internal/tasks"
)

// sessionPath is where the CLI keeps the gateway token between invocations.
func (r *Runner) sessionPath() string {
	return shared.ExpandPath(r.config.Session.Path)
}

func (r *Runner) saveToken(token string) error {
	path := r.sessionPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *Runner) loadToken() (string, error) {
	data, err := os.ReadFile(r.sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (r *Runner) clearToken() error {
	if err := os.Remove(r.sessionPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// resume opens the persisted session. A token the gateway no longer accepts is forgotten.
func (r *Runner) resume(ctx context.Context) (*Backend, *tasks.Account, *session.Session, error) {
	b, err := r.components(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	token, err := r.loadToken()
	if err != nil {
		return nil, nil, nil, err
	}
	if token == "" {
		return nil, nil, nil, fmt.Errorf("%w: run 'musicdash account login' first", shared.ErrNotAuthenticated)
	}

	account := tasks.NewAccount(b.NewAuth(), r.logger)
	sess, err := account.Resume(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			r.clearToken()
		}
		return nil, nil, nil, err
	}
	return b, account, sess, nil
}
