package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/musicdash/internal/shared"
	tu "github.com/desertthunder/musicdash/internal/testing"
)

func TestAccount(t *testing.T) {
	ctx := context.Background()

	signup := SignupInput{Name: "Ada", Email: "ada@example.com", Password: "Secret123!", Confirm: "Secret123!"}

	t.Run("Signup", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(in *SignupInput)
			message string
		}{
			{name: "missing name", mutate: func(in *SignupInput) { in.Name = " " }, message: "name is required"},
			{name: "bad email", mutate: func(in *SignupInput) { in.Email = "ada@example" }, message: "please enter a valid email address"},
			{name: "short password", mutate: func(in *SignupInput) { in.Password, in.Confirm = "short", "short" }, message: "password must be at least 8 characters long"},
			{name: "mismatch", mutate: func(in *SignupInput) { in.Confirm = "Secret124!" }, message: "passwords do not match"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				auth := tu.NewMemoryAuth()
				in := signup
				tt.mutate(&in)

				_, err := NewAccount(auth, nil).Signup(ctx, in)

				var verr *shared.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if verr.Fields[0].Message != tt.message {
					t.Errorf("expected %q, got %q", tt.message, verr.Fields[0].Message)
				}
				if _, ok := auth.User(in.Email); ok {
					t.Error("invalid input must not reach the gateway")
				}
			})
		}

		t.Run("creates account and signs in", func(t *testing.T) {
			auth := tu.NewMemoryAuth()
			sess, err := NewAccount(auth, nil).Signup(ctx, signup)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			user, err := sess.User()
			if err != nil || user.Email != "ada@example.com" {
				t.Errorf("unexpected session user %+v, %v", user, err)
			}
			if auth.Token() == "" {
				t.Error("expected a token after signup")
			}
		})

		t.Run("existing account", func(t *testing.T) {
			auth := tu.NewMemoryAuth()
			a := NewAccount(auth, nil)
			a.Signup(ctx, signup)

			if _, err := a.Signup(ctx, signup); !errors.Is(err, shared.ErrAccountExists) {
				t.Errorf("expected ErrAccountExists, got %v", err)
			}
		})
	})

	t.Run("Login", func(t *testing.T) {
		auth := tu.NewMemoryAuth()
		a := NewAccount(auth, nil)
		auth.Signup(ctx, "Ada", "ada@example.com", "Secret123!")

		if _, err := a.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong"}); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if _, err := a.Login(ctx, LoginInput{Email: "", Password: "x"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		sess, err := a.Login(ctx, LoginInput{Email: " ada@example.com ", Password: "Secret123!"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sess.Active() {
			t.Error("expected active session")
		}
	})

	t.Run("Logout ends the session even on failure", func(t *testing.T) {
		auth := tu.NewMemoryAuth()
		a := NewAccount(auth, nil)
		sess, _ := a.Signup(ctx, signup)

		auth.Failures["Logout"] = errBackend
		if err := a.Logout(ctx, sess); !errors.Is(err, shared.ErrGateway) {
			t.Errorf("expected ErrGateway, got %v", err)
		}
		if _, err := sess.UserID(); !errors.Is(err, shared.ErrSessionEnded) {
			t.Errorf("expected ErrSessionEnded, got %v", err)
		}
		if err := a.Logout(ctx, sess); !errors.Is(err, shared.ErrSessionEnded) {
			t.Errorf("expected ErrSessionEnded on second logout, got %v", err)
		}
		if auth.LogoutHit != 1 {
			t.Errorf("expected a single gateway logout, got %d", auth.LogoutHit)
		}
	})

	t.Run("DeleteAccount", func(t *testing.T) {
		auth := tu.NewMemoryAuth()
		a := NewAccount(auth, nil)
		sess, _ := a.Signup(ctx, signup)

		auth.Failures["DeleteAccount"] = errBackend
		if err := a.DeleteAccount(ctx, sess); err == nil {
			t.Fatal("expected error")
		}
		if !sess.Active() {
			t.Error("failed deletion must keep the session")
		}

		delete(auth.Failures, "DeleteAccount")
		if err := a.DeleteAccount(ctx, sess); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sess.Active() {
			t.Error("expected session to end")
		}
		if _, ok := auth.User(signup.Email); ok {
			t.Error("expected account to be gone")
		}
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		auth := tu.NewMemoryAuth()
		a := NewAccount(auth, nil)
		sess, _ := a.Signup(ctx, signup)

		if err := a.UpdateProfile(ctx, sess, ProfileInput{Name: "", Email: signup.Email}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		if err := a.UpdateProfile(ctx, sess, ProfileInput{Name: "Ada L.", Email: signup.Email}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		user, _ := sess.User()
		stored, _ := auth.User(signup.Email)
		if user.Name != "Ada L." || stored.Name != "Ada L." {
			t.Errorf("expected name to update, got %q and %q", user.Name, stored.Name)
		}
	})

	t.Run("Resume", func(t *testing.T) {
		auth := tu.NewMemoryAuth()
		a := NewAccount(auth, nil)
		a.Signup(ctx, signup)
		token := a.Token()

		sess, err := NewAccount(auth, nil).Resume(ctx, token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user, _ := sess.User(); user.Email != signup.Email {
			t.Errorf("unexpected user %+v", user)
		}

		if _, err := a.Resume(ctx, "bogus"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
