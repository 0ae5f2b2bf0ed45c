package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/musicdash/internal/shared"
	tu "github.com/desertthunder/musicdash/internal/testing"
)

func TestFetchRemoteConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "valid", status: http.StatusOK, body: `{"projectId":"p1","endPoint":"https://api.example.com/v1"}`},
		{name: "missing project", status: http.StatusOK, body: `{"endPoint":"https://api.example.com/v1"}`, wantErr: shared.ErrInvalidConfig},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: shared.ErrInvalidConfig},
		{name: "server error", status: http.StatusInternalServerError, body: ``, wantErr: shared.ErrGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			pc, err := FetchRemoteConfig(ctx, srv.Client(), srv.URL+"/api/config")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && (pc.ProjectID != "p1" || pc.Endpoint != "https://api.example.com/v1") {
				t.Errorf("unexpected config %+v", pc)
			}
		})
	}

	t.Run("transport failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		_, err := FetchRemoteConfig(ctx, client, "http://config.invalid/api/config")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("asks for json", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(tu.JSONResponse(http.StatusOK, `{"projectId":"p2","endPoint":"https://api.example.com/v1"}`), nil)
		pc, err := FetchRemoteConfig(ctx, &http.Client{Transport: rt}, "http://config.invalid/api/config")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pc.ProjectID != "p2" {
			t.Errorf("unexpected config %+v", pc)
		}

		reqs := rt.Requests()
		if len(reqs) != 1 || reqs[0].Method != http.MethodGet || reqs[0].Header.Get("Accept") != "application/json" {
			t.Errorf("unexpected requests %v", reqs)
		}
	})

	t.Run("unreadable body", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		_, err := FetchRemoteConfig(ctx, client, "http://config.invalid/api/config")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestResolveProject(t *testing.T) {
	ctx := context.Background()

	t.Run("static endpoint", func(t *testing.T) {
		pc, err := ResolveProject(ctx, shared.RemoteConfig{Endpoint: "https://api.example.com/v1", ProjectID: "p1"}, nil)
		if err != nil || pc.ProjectID != "p1" {
			t.Errorf("unexpected result %+v, %v", pc, err)
		}
	})

	t.Run("incomplete static endpoint", func(t *testing.T) {
		_, err := ResolveProject(ctx, shared.RemoteConfig{Endpoint: "https://api.example.com/v1"}, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestNewRemote(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.name, api.email, api.password = "Ada", "ada@example.com", "Secret123!"

	config := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"projectId":"proj-1","endPoint":"` + srv.URL + `"}`))
	}))
	defer config.Close()

	cfg := shared.DefaultConfig().Remote
	cfg.ConfigURL = config.URL
	cfg.RequestsPerSecond = 1000

	remote, err := NewRemote(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("failed to create remote: %v", err)
	}
	if remote.Project.ProjectID != "proj-1" {
		t.Errorf("unexpected project %+v", remote.Project)
	}

	if _, err := remote.Accounts.Login(context.Background(), "ada@example.com", "Secret123!"); err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	if _, err := remote.Documents.CreateDocument(context.Background(), "liked", "", map[string]any{"ownerId": "u1"}); err != nil {
		t.Errorf("documents client should share the signed-in transport: %v", err)
	}
}
