package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
)

// AuthRepository persists accounts and login sessions for the local backend.
//
// It is stateless: [LocalAuth] layers the "current session" of one client on top of it.
type AuthRepository struct {
	db   *sql.DB
	cost int
}

// NewAuthRepository creates a new [AuthRepository]. A cost outside bcrypt's range uses [bcrypt.DefaultCost].
func NewAuthRepository(db *sql.DB, cost int) *AuthRepository {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthRepository{db: db, cost: cost}
}

// CreateUser inserts an account with a bcrypt password hash.
// Email is compared case-insensitively and must not belong to an active account.
func (r *AuthRepository) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{ID: shared.GenerateID(), Name: strings.TrimSpace(name), Email: email, CreatedAt: time.Now().UTC()}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ? AND deleted_at IS NULL", email).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to query users: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("%w: %s", shared.ErrAccountExists, email)
		}

		sequence, err := nextSequence(ctx, tx, "users")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}

		query := `
			INSERT INTO users (id, sequence, email, name, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query, user.ID, sequence, user.Email, user.Name, string(hash), user.CreatedAt, user.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and returns the matching active user.
//
// Unknown emails and wrong passwords produce the same error.
func (r *AuthRepository) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, created_at
		FROM users
		WHERE email = ? AND deleted_at IS NULL
	`

	var (
		user models.User
		hash string
	)
	err := r.db.QueryRowContext(ctx, query, normalizeEmail(email)).Scan(&user.ID, &user.Email, &user.Name, &hash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return &user, nil
}

// CreateSession opens a login session for userID; its ID is the bearer token.
func (r *AuthRepository) CreateSession(ctx context.Context, user *models.User) (*models.AuthSession, error) {
	sess := &models.AuthSession{Token: shared.GenerateID(), User: *user, CreatedAt: time.Now().UTC()}

	_, err := r.db.ExecContext(ctx, "INSERT INTO sessions (id, user_id, created_at) VALUES (?, ?, ?)", sess.Token, user.ID, sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return sess, nil
}

// ResolveSession returns the user behind token, or [shared.ErrNotAuthenticated].
func (r *AuthRepository) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	query := `
		SELECT u.id, u.email, u.name, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ? AND u.deleted_at IS NULL
	`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, token).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	return &user, nil
}

// DeleteSession removes a login session. Unknown tokens are ignored.
func (r *AuthRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Rename updates the display name of an active user.
func (r *AuthRepository) Rename(ctx context.Context, userID, name string) error {
	query := `
		UPDATE users
		SET name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, strings.TrimSpace(name), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user not found or already deleted: %s", shared.ErrNotAuthenticated, userID)
	}
	return nil
}

// DeleteUser soft-deletes the account, ends all of its sessions and purges every document it owns,
// all in one transaction.
func (r *AuthRepository) DeleteUser(ctx context.Context, userID string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now().UTC(), userID)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: user not found or already deleted: %s", shared.ErrNotAuthenticated, userID)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE owner_id = ?", userID); err != nil {
			return fmt.Errorf("failed to purge documents: %w", err)
		}
		return nil
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LocalAuth implements [models.AuthGateway] for one client on top of an [AuthRepository].
type LocalAuth struct {
	repo *AuthRepository

	mu    sync.RWMutex
	token string
	user  *models.User
}

// NewLocalAuth creates a signed-out [LocalAuth].
func NewLocalAuth(repo *AuthRepository) *LocalAuth {
	return &LocalAuth{repo: repo}
}

// CurrentUser returns the signed-in user
func (a *LocalAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	a.mu.RLock()
	token := a.token
	a.mu.RUnlock()

	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	user, err := a.repo.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
	return user, nil
}

// Signup creates an account. It does not sign in.
func (a *LocalAuth) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	return a.repo.CreateUser(ctx, name, email, password)
}

// Login authenticates and makes the new session current
func (a *LocalAuth) Login(ctx context.Context, email, password string) (*models.AuthSession, error) {
	user, err := a.repo.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sess, err := a.repo.CreateSession(ctx, user)
	if err != nil {
		return nil, err
	}

	a.set(sess.Token, user)
	return sess, nil
}

// Logout deletes the current session
func (a *LocalAuth) Logout(ctx context.Context) error {
	a.mu.RLock()
	token := a.token
	a.mu.RUnlock()

	if token == "" {
		return shared.ErrNotAuthenticated
	}
	if err := a.repo.DeleteSession(ctx, token); err != nil {
		return err
	}

	a.set("", nil)
	return nil
}

// DeleteAccount removes the signed-in account and everything it owns
func (a *LocalAuth) DeleteAccount(ctx context.Context) error {
	user, err := a.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if err := a.repo.DeleteUser(ctx, user.ID); err != nil {
		return err
	}

	a.set("", nil)
	return nil
}

// UpdateDisplayName renames the signed-in account
func (a *LocalAuth) UpdateDisplayName(ctx context.Context, name string) error {
	user, err := a.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return a.repo.Rename(ctx, user.ID, name)
}

// Token returns the current bearer token, empty when signed out
func (a *LocalAuth) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Restore makes token the current session after checking it is still valid
func (a *LocalAuth) Restore(ctx context.Context, token string) error {
	user, err := a.repo.ResolveSession(ctx, token)
	if err != nil {
		return err
	}

	a.set(token, user)
	return nil
}

func (a *LocalAuth) set(token string, user *models.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
	a.user = user
}
