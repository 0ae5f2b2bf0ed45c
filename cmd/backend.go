package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/repositories"
	"github.com/desertthunder/musicdash/internal/services"
	"github.com/desertthunder/musicdash/internal/session"
	"github.com/desertthunder/musicdash/internal/shared"
	"github.com/desertthunder/musicdash/internal/tasks"
)

// Backend is the set of dashboard components over one gateway implementation.
type Backend struct {
	Kind      string
	NewAuth   func() models.AuthGateway
	Store     models.DocumentStore
	Playlists *tasks.PlaylistEngine
	Likes     *tasks.LikedSongs
	History   *tasks.HistoryRecorder
	Player    *tasks.Player
	Dashboard *tasks.Dashboard

	search  shared.SearchConfig
	closers []func() error
}

// NewBackend wires the dashboard components over store and the auth factory.
func NewBackend(kind string, store models.DocumentStore, newAuth func() models.AuthGateway, search shared.SearchConfig, logger *log.Logger) *Backend {
	playlists := tasks.NewPlaylistEngine(store, shared.WithLogger(logger, "component", "playlists"))
	likes := tasks.NewLikedSongs(store, shared.WithLogger(logger, "component", "likes"))
	history := tasks.NewHistoryRecorder(store, shared.WithLogger(logger, "component", "history"))

	return &Backend{
		Kind:      kind,
		NewAuth:   newAuth,
		Store:     store,
		Playlists: playlists,
		Likes:     likes,
		History:   history,
		Player:    tasks.NewPlayer(history),
		Dashboard: tasks.NewDashboard(likes, playlists, history),
		search:    search,
	}
}

// OpenBackend opens the backend selected by backend.kind.
func OpenBackend(ctx context.Context, cfg *shared.Config, logger *log.Logger) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend.Kind {
	case shared.BackendRemote:
		return openRemote(ctx, cfg, logger)
	default:
		return openLocal(cfg, logger)
	}
}

func openLocal(cfg *shared.Config, logger *log.Logger) (*Backend, error) {
	dbConfig := cfg.Database
	dbConfig.Path = shared.ExpandPath(dbConfig.Path)

	logger.Debug("opening local database", "path", dbConfig.Path)
	db, err := shared.OpenMigrated(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cost := cfg.Database.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	authRepo := repositories.NewAuthRepository(db, cost)

	b := NewBackend(shared.BackendLocal, repositories.NewDocumentRepository(db),
		func() models.AuthGateway { return repositories.NewLocalAuth(authRepo) }, cfg.Search, logger)
	b.closers = append(b.closers, db.Close)
	return b, nil
}

// openRemote resolves the remote project once. The CLI acts for one user, so every caller shares
// the same account client.
func openRemote(ctx context.Context, cfg *shared.Config, logger *log.Logger) (*Backend, error) {
	remote, err := services.NewRemote(ctx, cfg.Remote, shared.WithLogger(logger, "component", "remote"))
	if err != nil {
		return nil, fmt.Errorf("failed to reach remote backend: %w", err)
	}
	logger.Debug("remote backend ready", "endpoint", remote.Project.Endpoint, "project", remote.Project.ProjectID)

	return NewBackend(shared.BackendRemote, remote.Documents,
		func() models.AuthGateway { return remote.Accounts }, cfg.Search, logger), nil
}

// SearchProvider returns the configured provider. The index provider is seeded from the songs
// the signed-in user already has.
func (b *Backend) SearchProvider(ctx context.Context, sess *session.Session) (services.SearchProvider, error) {
	if b.search.Provider != "index" {
		return services.NewSimulatedSearch(), nil
	}

	idx, err := services.NewIndexSearch(b.search.Limit)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, idx.Close)

	songs, err := b.Dashboard.Library(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := idx.Index(songs...); err != nil {
		return nil, err
	}
	return idx, nil
}

// Close waits for pending history writes and releases everything the backend opened.
func (b *Backend) Close() error {
	b.Player.Wait()

	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
