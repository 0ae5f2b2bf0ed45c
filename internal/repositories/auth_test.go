package repositories

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
)

func TestAuthRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateUser", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAuthRepository(db, bcrypt.MinCost)

		user, err := repo.CreateUser(ctx, " Ada ", "Ada@Example.com", "Secret123!")
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if user.ID == "" || user.Name != "Ada" || user.Email != "ada@example.com" {
			t.Errorf("unexpected user %+v", user)
		}

		var hash string
		db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&hash)
		if hash == "" || hash == "Secret123!" {
			t.Error("password must be stored hashed")
		}

		_, err = repo.CreateUser(ctx, "Other", "ada@example.com", "Secret123!")
		if !errors.Is(err, shared.ErrAccountExists) {
			t.Errorf("expected ErrAccountExists, got %v", err)
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		repo := NewAuthRepository(setupTestDB(t), bcrypt.MinCost)
		repo.CreateUser(ctx, "Ada", "ada@example.com", "Secret123!")

		tests := []struct {
			name     string
			email    string
			password string
			wantErr  error
		}{
			{name: "valid", email: "ada@example.com", password: "Secret123!"},
			{name: "case insensitive email", email: "ADA@example.com", password: "Secret123!"},
			{name: "wrong password", email: "ada@example.com", password: "nope", wantErr: shared.ErrInvalidCredentials},
			{name: "unknown email", email: "bob@example.com", password: "Secret123!", wantErr: shared.ErrInvalidCredentials},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := repo.Authenticate(ctx, tt.email, tt.password)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})

	t.Run("Sessions", func(t *testing.T) {
		repo := NewAuthRepository(setupTestDB(t), bcrypt.MinCost)
		user, _ := repo.CreateUser(ctx, "Ada", "ada@example.com", "Secret123!")

		sess, err := repo.CreateSession(ctx, user)
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		resolved, err := repo.ResolveSession(ctx, sess.Token)
		if err != nil || resolved.ID != user.ID {
			t.Fatalf("expected %s, got %+v, %v", user.ID, resolved, err)
		}

		if err := repo.DeleteSession(ctx, sess.Token); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		if _, err := repo.ResolveSession(ctx, sess.Token); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := repo.ResolveSession(ctx, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated for empty token, got %v", err)
		}
	})

	t.Run("DeleteUser purges owned documents", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAuthRepository(db, bcrypt.MinCost)
		docs := NewDocumentRepository(db)

		ada, _ := repo.CreateUser(ctx, "Ada", "ada@example.com", "Secret123!")
		bob, _ := repo.CreateUser(ctx, "Bob", "bob@example.com", "Secret123!")
		sess, _ := repo.CreateSession(ctx, ada)

		docs.CreateDocument(ctx, models.CollectionLiked, "", models.Fields{"ownerId": ada.ID})
		docs.CreateDocument(ctx, models.CollectionPlaylists, "", models.Fields{"ownerId": ada.ID})
		docs.CreateDocument(ctx, models.CollectionLiked, "", models.Fields{"ownerId": bob.ID})

		if err := repo.DeleteUser(ctx, ada.ID); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.ResolveSession(ctx, sess.Token); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected sessions to be gone, got %v", err)
		}
		if list, _ := docs.ListDocuments(ctx, models.CollectionLiked, models.OwnedBy(ada.ID)); list.Total != 0 {
			t.Errorf("expected ada's documents to be purged, got %d", list.Total)
		}
		if list, _ := docs.ListDocuments(ctx, models.CollectionLiked, models.OwnedBy(bob.ID)); list.Total != 1 {
			t.Errorf("expected bob's documents to remain, got %d", list.Total)
		}

		if _, err := repo.CreateUser(ctx, "Ada again", "ada@example.com", "Secret123!"); err != nil {
			t.Errorf("deleted email should be reusable: %v", err)
		}
		if err := repo.DeleteUser(ctx, ada.ID); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated for deleted user, got %v", err)
		}
	})

	t.Run("cost outside range falls back to default", func(t *testing.T) {
		repo := NewAuthRepository(setupTestDB(t), 99)
		if repo.cost != bcrypt.DefaultCost {
			t.Errorf("expected default cost, got %d", repo.cost)
		}
	})
}

func TestLocalAuth(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*AuthRepository, *LocalAuth) {
		t.Helper()
		repo := NewAuthRepository(setupTestDB(t), bcrypt.MinCost)
		auth := NewLocalAuth(repo)
		if _, err := auth.Signup(ctx, "Ada", "ada@example.com", "Secret123!"); err != nil {
			t.Fatalf("failed to sign up: %v", err)
		}
		return repo, auth
	}

	t.Run("signed out", func(t *testing.T) {
		_, auth := setup(t)

		if _, err := auth.CurrentUser(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if err := auth.Logout(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("login, rename, logout", func(t *testing.T) {
		_, auth := setup(t)

		sess, err := auth.Login(ctx, "ada@example.com", "Secret123!")
		if err != nil {
			t.Fatalf("failed to log in: %v", err)
		}
		if auth.Token() != sess.Token {
			t.Error("expected login to set the current token")
		}

		if err := auth.UpdateDisplayName(ctx, "Ada L."); err != nil {
			t.Fatalf("failed to rename: %v", err)
		}
		user, _ := auth.CurrentUser(ctx)
		if user.Name != "Ada L." {
			t.Errorf("expected renamed user, got %+v", user)
		}

		if err := auth.Logout(ctx); err != nil {
			t.Fatalf("failed to log out: %v", err)
		}
		if auth.Token() != "" {
			t.Error("expected token to be cleared")
		}
	})

	t.Run("restore in another client", func(t *testing.T) {
		repo, auth := setup(t)
		sess, _ := auth.Login(ctx, "ada@example.com", "Secret123!")

		other := NewLocalAuth(repo)
		if err := other.Restore(ctx, sess.Token); err != nil {
			t.Fatalf("failed to restore: %v", err)
		}
		user, err := other.CurrentUser(ctx)
		if err != nil || user.Email != "ada@example.com" {
			t.Errorf("unexpected user %+v, %v", user, err)
		}

		if err := other.Restore(ctx, "bogus"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("delete account", func(t *testing.T) {
		_, auth := setup(t)
		auth.Login(ctx, "ada@example.com", "Secret123!")

		if err := auth.DeleteAccount(ctx); err != nil {
			t.Fatalf("failed to delete account: %v", err)
		}
		if _, err := auth.Login(ctx, "ada@example.com", "Secret123!"); !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials after deletion, got %v", err)
		}
	})
}
