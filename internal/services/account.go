// Remote account client
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
	"golang.org/x/oauth2"
)

// AccountOptions holds the OAuth2 client credentials for the password grant.
type AccountOptions struct {
	ClientID     string
	ClientSecret string
}

// AccountClient implements [models.AuthGateway] against the hosted account API.
//
// Login uses the OAuth2 resource-owner password grant at {endpoint}/oauth2/token; the resulting
// token source authenticates every later request made through the shared [Transport].
type AccountClient struct {
	transport *Transport
	config    *oauth2.Config

	mu    sync.RWMutex
	token *oauth2.Token
}

// NewAccountClient creates a signed-out [AccountClient].
func NewAccountClient(t *Transport, opts AccountOptions) *AccountClient {
	return &AccountClient{
		transport: t,
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  t.Endpoint() + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// remoteUser is an account as the API returns it.
type remoteUser struct {
	ID        string `json:"$id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"$createdAt"`
}

func (r remoteUser) toUser() *models.User {
	return &models.User{ID: r.ID, Name: r.Name, Email: r.Email, CreatedAt: parseTime(r.CreatedAt)}
}

// tokenContext carries the plain client so token requests and refreshes go through it.
func (a *AccountClient) tokenContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.transport.BaseClient())
}

func (a *AccountClient) signedIn() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != nil
}

func (a *AccountClient) setToken(tok *oauth2.Token) {
	a.mu.Lock()
	a.token = tok
	a.mu.Unlock()

	if tok == nil {
		a.transport.SetClient(nil)
		return
	}
	a.transport.SetClient(a.config.Client(a.tokenContext(context.Background()), tok))
}

// CurrentUser returns the signed-in account.
func (a *AccountClient) CurrentUser(ctx context.Context) (*models.User, error) {
	if !a.signedIn() {
		return nil, shared.ErrNotAuthenticated
	}

	var ru remoteUser
	if err := a.transport.do(ctx, http.MethodGet, "/account", nil, nil, &ru); err != nil {
		if errors.Is(err, shared.ErrDocumentNotFound) {
			return nil, shared.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return ru.toUser(), nil
}

// Signup creates an account. It does not sign in.
func (a *AccountClient) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	body := map[string]string{
		"userId":   uniqueID,
		"name":     strings.TrimSpace(name),
		"email":    strings.ToLower(strings.TrimSpace(email)),
		"password": password,
	}

	var ru remoteUser
	if err := a.transport.do(ctx, http.MethodPost, "/account", nil, body, &ru); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusConflict {
			return nil, fmt.Errorf("%w: %s", shared.ErrAccountExists, body["email"])
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return ru.toUser(), nil
}

// Login exchanges the credentials for a token and makes it current.
func (a *AccountClient) Login(ctx context.Context, email, password string) (*models.AuthSession, error) {
	tok, err := a.config.PasswordCredentialsToken(a.tokenContext(ctx), strings.ToLower(strings.TrimSpace(email)), password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode < http.StatusInternalServerError {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: token request failed: %w", shared.ErrServiceUnavailable, err)
	}

	a.setToken(tok)
	user, err := a.CurrentUser(ctx)
	if err != nil {
		a.setToken(nil)
		return nil, err
	}

	return &models.AuthSession{Token: a.Token(), User: *user, CreatedAt: time.Now()}, nil
}

// Logout deletes the current session.
func (a *AccountClient) Logout(ctx context.Context) error {
	if !a.signedIn() {
		return shared.ErrNotAuthenticated
	}
	if err := a.transport.do(ctx, http.MethodDelete, "/account/sessions/current", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	a.setToken(nil)
	return nil
}

// DeleteAccount removes the signed-in account.
func (a *AccountClient) DeleteAccount(ctx context.Context) error {
	if !a.signedIn() {
		return shared.ErrNotAuthenticated
	}
	if err := a.transport.do(ctx, http.MethodDelete, "/account", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	a.setToken(nil)
	return nil
}

// UpdateDisplayName renames the signed-in account.
func (a *AccountClient) UpdateDisplayName(ctx context.Context, name string) error {
	if !a.signedIn() {
		return shared.ErrNotAuthenticated
	}
	body := map[string]string{"name": strings.TrimSpace(name)}
	if err := a.transport.do(ctx, http.MethodPatch, "/account/name", nil, body, nil); err != nil {
		return fmt.Errorf("failed to update name: %w", err)
	}
	return nil
}

// Token returns the current OAuth2 token as JSON, empty when signed out.
func (a *AccountClient) Token() string {
	a.mu.RLock()
	tok := a.token
	a.mu.RUnlock()

	if tok == nil {
		return ""
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return ""
	}
	return string(data)
}

// Restore resumes a session from a token produced by [AccountClient.Token].
func (a *AccountClient) Restore(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return shared.ErrNotAuthenticated
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(token), &tok); err != nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: unreadable token", shared.ErrNotAuthenticated)
	}

	a.setToken(&tok)
	if _, err := a.CurrentUser(ctx); err != nil {
		a.setToken(nil)
		return err
	}
	return nil
}
