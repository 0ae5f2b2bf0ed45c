// Remote backend bootstrap
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicdash/internal/shared"
)

// ProjectConfig is the JSON document published by the configuration endpoint.
type ProjectConfig struct {
	ProjectID string `json:"projectId"`
	Endpoint  string `json:"endPoint"`
}

// FetchRemoteConfig downloads the project configuration from configURL.
func FetchRemoteConfig(ctx context.Context, client *http.Client, configURL string) (*ProjectConfig, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, configURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: config request failed: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: config endpoint returned status %d", shared.ErrGateway, resp.StatusCode)
	}

	var pc ProjectConfig
	if err := json.NewDecoder(resp.Body).Decode(&pc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode config: %w", shared.ErrInvalidConfig, err)
	}
	if err := pc.validate(); err != nil {
		return nil, err
	}
	return &pc, nil
}

func (pc ProjectConfig) validate() error {
	if strings.TrimSpace(pc.Endpoint) == "" || strings.TrimSpace(pc.ProjectID) == "" {
		return fmt.Errorf("%w: remote config needs both projectId and endPoint", shared.ErrInvalidConfig)
	}
	return nil
}

// ResolveProject returns the project configuration, fetching it when cfg.ConfigURL is set.
func ResolveProject(ctx context.Context, cfg shared.RemoteConfig, client *http.Client) (*ProjectConfig, error) {
	if cfg.ConfigURL != "" {
		return FetchRemoteConfig(ctx, client, cfg.ConfigURL)
	}

	pc := &ProjectConfig{ProjectID: cfg.ProjectID, Endpoint: cfg.Endpoint}
	if err := pc.validate(); err != nil {
		return nil, err
	}
	return pc, nil
}

// Remote bundles the clients that make up the remote backend. They share one [Transport], so the
// documents client is authenticated as soon as the account client signs in.
type Remote struct {
	Project   *ProjectConfig
	Transport *Transport
	Accounts  *AccountClient
	Documents *DocumentClient
}

// NewRemote resolves the project configuration once and wires the remote clients.
func NewRemote(ctx context.Context, cfg shared.RemoteConfig, logger *log.Logger) (*Remote, error) {
	pc, err := ResolveProject(ctx, cfg, &http.Client{Timeout: cfg.Timeout()})
	if err != nil {
		return nil, err
	}

	t := NewTransport(TransportOptions{
		Endpoint:          pc.Endpoint,
		ProjectID:         pc.ProjectID,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Timeout:           cfg.Timeout(),
		Logger:            logger,
	})

	return &Remote{
		Project:   pc,
		Transport: t,
		Accounts:  NewAccountClient(t, AccountOptions{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret}),
		Documents: NewDocumentClient(t, cfg.DatabaseID),
	}, nil
}
