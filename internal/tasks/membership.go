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

// maxWriteAttempts bounds the compare-and-swap loop on revisioned stores.
const maxWriteAttempts = 3

// PlaylistEngine maintains playlists and their song membership.
//
// Membership changes are read-modify-write cycles on the whole songs field. They are serialized per
// playlist in-process and, when the store is a [models.RevisionedStore], written with a
// compare-and-swap on the document revision.
type PlaylistEngine struct {
	store  models.DocumentStore
	logger *log.Logger
	locks  *keyedMutex
}

// NewPlaylistEngine creates a new [PlaylistEngine]. A nil logger discards output.
func NewPlaylistEngine(store models.DocumentStore, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &PlaylistEngine{store: store, logger: logger, locks: newKeyedMutex()}
}

// PlaylistInput holds the user-editable playlist fields.
type PlaylistInput struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=500"`
}

type playlistFields struct {
	OwnerID     string        `json:"ownerId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Songs       []models.Song `json:"songs"`
}

type songsField struct {
	Songs []models.Song `json:"songs"`
}

// AddSong appends song unless a song with the same id is already in the playlist.
func (e *PlaylistEngine) AddSong(ctx context.Context, sess *session.Session, playlistID string, song models.Song) (Outcome, error) {
	if strings.TrimSpace(song.ID) == "" {
		return 0, shared.Invalid("id", "song id is required")
	}

	_, changed, err := e.mutate(ctx, sess, playlistID, func(p models.Playlist) ([]models.Song, bool) {
		return p.WithSong(song)
	})
	if err != nil {
		return 0, err
	}
	if !changed {
		return OutcomeAlreadyExists, nil
	}

	e.logger.Info("song added", "playlist", playlistID, "song", song.ID)
	return OutcomeAdded, nil
}

// RemoveSong removes the first song with songID. An absent id writes nothing.
func (e *PlaylistEngine) RemoveSong(ctx context.Context, sess *session.Session, playlistID, songID string) (Outcome, error) {
	outcome, _, err := e.removeSong(ctx, sess, playlistID, songID)
	return outcome, err
}

// removeSong also returns the playlist as it stands after the removal.
func (e *PlaylistEngine) removeSong(ctx context.Context, sess *session.Session, playlistID, songID string) (Outcome, *models.Playlist, error) {
	p, changed, err := e.mutate(ctx, sess, playlistID, func(p models.Playlist) ([]models.Song, bool) {
		return p.WithoutSong(songID)
	})
	if err != nil {
		return 0, nil, err
	}
	if !changed {
		return OutcomeNotPresent, p, nil
	}

	e.logger.Info("song removed", "playlist", playlistID, "song", songID)
	return OutcomeRemoved, p, nil
}

// RemoveSelected drops every song whose id is in sel with a single read-modify-write and returns
// how many were removed. Ids no longer in the playlist are ignored.
//
// On success sel is cleared, even when nothing matched. On failure sel is left as it was.
func (e *PlaylistEngine) RemoveSelected(ctx context.Context, sess *session.Session, playlistID string, sel *SelectionSet) (int, error) {
	removed, _, err := e.removeSelected(ctx, sess, playlistID, sel)
	return removed, err
}

// removeSelected also returns the playlist as it stands after the removal, nil when sel is empty.
func (e *PlaylistEngine) removeSelected(ctx context.Context, sess *session.Session, playlistID string, sel *SelectionSet) (int, *models.Playlist, error) {
	ids := sel.snapshot()
	if len(ids) == 0 {
		return 0, nil, nil
	}

	removed := 0
	p, _, err := e.mutate(ctx, sess, playlistID, func(p models.Playlist) ([]models.Song, bool) {
		var songs []models.Song
		songs, removed = p.WithoutSongs(ids)
		return songs, removed > 0
	})
	if err != nil {
		return 0, nil, err
	}

	sel.Clear()
	e.logger.Info("selected songs removed", "playlist", playlistID, "removed", removed, "selected", len(ids))
	return removed, p, nil
}

// ListSongs returns the playlist's songs in order, never nil.
func (e *PlaylistEngine) ListSongs(ctx context.Context, sess *session.Session, playlistID string) ([]models.Song, error) {
	p, err := e.GetPlaylist(ctx, sess, playlistID)
	if err != nil {
		return nil, err
	}
	if p.Songs == nil {
		return []models.Song{}, nil
	}
	return p.Songs, nil
}

// GetPlaylist fetches a playlist owned by the session's user.
// Playlists owned by anyone else are reported as not found.
func (e *PlaylistEngine) GetPlaylist(ctx context.Context, sess *session.Session, playlistID string) (*models.Playlist, error) {
	owner, err := sess.UserID()
	if err != nil {
		return nil, err
	}
	return e.load(ctx, owner, playlistID)
}

// ListPlaylists returns the user's playlists, newest first.
func (e *PlaylistEngine) ListPlaylists(ctx context.Context, sess *session.Session) ([]models.Playlist, error) {
	playlists, _, err := e.listPlaylists(ctx, sess)
	return playlists, err
}

// listPlaylists also returns the store's total, which can exceed the playlists returned when the store pages.
func (e *PlaylistEngine) listPlaylists(ctx context.Context, sess *session.Session) ([]models.Playlist, int, error) {
	owner, err := sess.UserID()
	if err != nil {
		return nil, 0, err
	}

	list, err := e.store.ListDocuments(ctx, models.CollectionPlaylists, models.OwnedBy(owner).Newest())
	if err != nil {
		e.logger.Error("failed to list playlists", "error", err)
		return nil, 0, fmt.Errorf("failed to list playlists: %w", err)
	}

	playlists := make([]models.Playlist, 0, len(list.Documents))
	for _, doc := range list.Documents {
		var p models.Playlist
		if err := doc.Decode(&p); err != nil {
			return nil, 0, err
		}
		playlists = append(playlists, p)
	}
	return playlists, max(list.Total, len(playlists)), nil
}

// CreatePlaylist creates an empty playlist.
func (e *PlaylistEngine) CreatePlaylist(ctx context.Context, sess *session.Session, in PlaylistInput) (*models.Playlist, error) {
	owner, err := sess.UserID()
	if err != nil {
		return nil, err
	}

	in = in.trimmed()
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}

	fields, err := models.ToFields(playlistFields{OwnerID: owner, Name: in.Name, Description: in.Description, Songs: []models.Song{}})
	if err != nil {
		return nil, err
	}

	doc, err := e.store.CreateDocument(ctx, models.CollectionPlaylists, "", fields)
	if err != nil {
		e.logger.Error("failed to create playlist", "name", in.Name, "error", err)
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	var p models.Playlist
	if err := doc.Decode(&p); err != nil {
		return nil, err
	}

	e.logger.Info("playlist created", "playlist", p.ID, "name", p.Name)
	return &p, nil
}

// UpdatePlaylist changes name and description; songs are not touched.
func (e *PlaylistEngine) UpdatePlaylist(ctx context.Context, sess *session.Session, playlistID string, in PlaylistInput) (*models.Playlist, error) {
	owner, err := sess.UserID()
	if err != nil {
		return nil, err
	}

	in = in.trimmed()
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(playlistID)
	defer unlock()

	if _, err := e.load(ctx, owner, playlistID); err != nil {
		return nil, err
	}

	doc, err := e.store.UpdateDocument(ctx, models.CollectionPlaylists, playlistID, models.Fields{
		"name":        in.Name,
		"description": in.Description,
	})
	if err != nil {
		e.logger.Error("failed to update playlist", "playlist", playlistID, "error", err)
		return nil, fmt.Errorf("failed to update playlist: %w", err)
	}

	var p models.Playlist
	if err := doc.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePlaylist deletes a playlist owned by the session's user.
func (e *PlaylistEngine) DeletePlaylist(ctx context.Context, sess *session.Session, playlistID string) error {
	owner, err := sess.UserID()
	if err != nil {
		return err
	}

	unlock := e.locks.Lock(playlistID)
	defer unlock()

	if _, err := e.load(ctx, owner, playlistID); err != nil {
		return err
	}

	if err := e.store.DeleteDocument(ctx, models.CollectionPlaylists, playlistID); err != nil {
		if errors.Is(err, shared.ErrDocumentNotFound) {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		e.logger.Error("failed to delete playlist", "playlist", playlistID, "error", err)
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	e.logger.Info("playlist deleted", "playlist", playlistID)
	return nil
}

// mutate runs one serialized read-modify-write of the songs field.
//
// fn computes the new songs from the current playlist and reports whether anything changed;
// unchanged results are never written.
func (e *PlaylistEngine) mutate(ctx context.Context, sess *session.Session, playlistID string, fn func(models.Playlist) ([]models.Song, bool)) (*models.Playlist, bool, error) {
	owner, err := sess.UserID()
	if err != nil {
		return nil, false, err
	}

	unlock := e.locks.Lock(playlistID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		p, err := e.load(ctx, owner, playlistID)
		if err != nil {
			return nil, false, err
		}

		songs, changed := fn(*p)
		if !changed {
			return p, false, nil
		}

		err = e.writeSongs(ctx, p, songs)
		if errors.Is(err, shared.ErrRevisionConflict) && attempt < maxWriteAttempts {
			e.logger.Warn("playlist changed concurrently, retrying", "playlist", playlistID, "attempt", attempt)
			continue
		}
		if err != nil {
			e.logger.Error("failed to write playlist songs", "playlist", playlistID, "error", err)
			return nil, false, fmt.Errorf("failed to update playlist %s: %w", playlistID, err)
		}

		p.Songs = songs
		return p, true, nil
	}
}

func (e *PlaylistEngine) writeSongs(ctx context.Context, p *models.Playlist, songs []models.Song) error {
	fields, err := models.ToFields(songsField{Songs: songs})
	if err != nil {
		return err
	}

	if rs, ok := e.store.(models.RevisionedStore); ok {
		_, err = rs.UpdateDocumentAt(ctx, models.CollectionPlaylists, p.ID, p.Revision, fields)
		return err
	}

	_, err = e.store.UpdateDocument(ctx, models.CollectionPlaylists, p.ID, fields)
	return err
}

func (e *PlaylistEngine) load(ctx context.Context, owner, playlistID string) (*models.Playlist, error) {
	if strings.TrimSpace(playlistID) == "" {
		return nil, shared.Invalid("playlist", "playlist id is required")
	}

	doc, err := e.store.GetDocument(ctx, models.CollectionPlaylists, playlistID)
	if errors.Is(err, shared.ErrDocumentNotFound) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if err != nil {
		e.logger.Error("failed to load playlist", "playlist", playlistID, "error", err)
		return nil, fmt.Errorf("failed to load playlist %s: %w", playlistID, err)
	}
	if !doc.OwnedBy(owner) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	var p models.Playlist
	if err := doc.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (in PlaylistInput) trimmed() PlaylistInput {
	return PlaylistInput{Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description)}
}
