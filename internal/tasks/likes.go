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

// LikedSongs enforces one like per (owner, song).
type LikedSongs struct {
	store  models.DocumentStore
	logger *log.Logger
	locks  *keyedMutex
}

// ClearResult reports how far a [LikedSongs.ClearAll] got.
type ClearResult struct {
	Total   int // records found when the clear started
	Deleted int // records deleted before the first failure
}

// Remaining is the number of records still persisted.
func (r ClearResult) Remaining() int {
	return r.Total - r.Deleted
}

type likedFields struct {
	OwnerID string `json:"ownerId"`
	SongID  string `json:"songId"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Source  string `json:"source,omitempty"`
	URL     string `json:"url,omitempty"`
}

// NewLikedSongs creates a new [LikedSongs]. A nil logger discards output.
func NewLikedSongs(store models.DocumentStore, logger *log.Logger) *LikedSongs {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &LikedSongs{store: store, logger: logger, locks: newKeyedMutex()}
}

// Like records song as liked, or reports [OutcomeAlreadyLiked] when a like for its id exists.
func (l *LikedSongs) Like(ctx context.Context, sess *session.Session, song models.Song) (Outcome, *models.LikedSong, error) {
	owner, err := sess.UserID()
	if err != nil {
		return 0, nil, err
	}
	if strings.TrimSpace(song.ID) == "" {
		return 0, nil, shared.Invalid("id", "song id is required")
	}

	unlock := l.locks.Lock(owner + "/" + song.ID)
	defer unlock()

	existing, err := l.store.ListDocuments(ctx, models.CollectionLiked, models.OwnedBy(owner).Equal("songId", song.ID).Limit(1))
	if err != nil {
		l.logger.Error("failed to check liked songs", "song", song.ID, "error", err)
		return 0, nil, fmt.Errorf("failed to check liked songs: %w", err)
	}
	if len(existing.Documents) > 0 {
		var liked models.LikedSong
		if err := existing.Documents[0].Decode(&liked); err != nil {
			return 0, nil, err
		}
		return OutcomeAlreadyLiked, &liked, nil
	}

	fields, err := models.ToFields(likedFields{
		OwnerID: owner,
		SongID:  song.ID,
		Title:   song.Title,
		Artist:  song.Artist,
		Source:  song.Source,
		URL:     song.URL,
	})
	if err != nil {
		return 0, nil, err
	}

	doc, err := l.store.CreateDocument(ctx, models.CollectionLiked, "", fields)
	if err != nil {
		l.logger.Error("failed to like song", "song", song.ID, "error", err)
		return 0, nil, fmt.Errorf("failed to like song: %w", err)
	}

	var liked models.LikedSong
	if err := doc.Decode(&liked); err != nil {
		return 0, nil, err
	}

	l.logger.Info("song liked", "song", song.ID, "record", liked.ID)
	return OutcomeLiked, &liked, nil
}

// Unlike deletes a like record. Missing records, or records owned by someone else, are
// reported as [OutcomeNotPresent].
func (l *LikedSongs) Unlike(ctx context.Context, sess *session.Session, recordID string) (Outcome, error) {
	owner, err := sess.UserID()
	if err != nil {
		return 0, err
	}

	doc, err := l.store.GetDocument(ctx, models.CollectionLiked, recordID)
	if errors.Is(err, shared.ErrDocumentNotFound) {
		return OutcomeNotPresent, nil
	}
	if err != nil {
		l.logger.Error("failed to load liked song", "record", recordID, "error", err)
		return 0, fmt.Errorf("failed to load liked song: %w", err)
	}
	if !doc.OwnedBy(owner) {
		return OutcomeNotPresent, nil
	}

	err = l.store.DeleteDocument(ctx, models.CollectionLiked, recordID)
	if errors.Is(err, shared.ErrDocumentNotFound) {
		return OutcomeNotPresent, nil
	}
	if err != nil {
		l.logger.Error("failed to unlike song", "record", recordID, "error", err)
		return 0, fmt.Errorf("failed to unlike song: %w", err)
	}

	l.logger.Info("song unliked", "record", recordID)
	return OutcomeUnliked, nil
}

// List returns the user's liked songs, newest first.
func (l *LikedSongs) List(ctx context.Context, sess *session.Session) ([]models.LikedSong, error) {
	owner, err := sess.UserID()
	if err != nil {
		return nil, err
	}
	liked, _, err := l.list(ctx, owner)
	return liked, err
}

// ClearAll deletes every liked song one by one and stops at the first failure.
// Records deleted before the failure stay deleted.
func (l *LikedSongs) ClearAll(ctx context.Context, sess *session.Session, progress chan<- ProgressUpdate) (ClearResult, error) {
	owner, err := sess.UserID()
	if err != nil {
		return ClearResult{}, err
	}

	liked, _, err := l.list(ctx, owner)
	if err != nil {
		return ClearResult{}, err
	}

	result := ClearResult{Total: len(liked)}
	sendProgress(progress, fetchLikedUpdate(result.Total))

	for i := range liked {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := l.store.DeleteDocument(ctx, models.CollectionLiked, liked[i].ID)
		if err != nil && !errors.Is(err, shared.ErrDocumentNotFound) {
			sendProgress(progress, clearFailedUpdate(i+1, result.Total, &liked[i], err))
			l.logger.Error("clear stopped", "deleted", result.Deleted, "total", result.Total, "error", err)
			return result, fmt.Errorf("failed to clear liked songs after %d of %d: %w", result.Deleted, result.Total, err)
		}

		result.Deleted++
		sendProgress(progress, clearLikedUpdate(i+1, result.Total, &liked[i]))
	}

	l.logger.Info("liked songs cleared", "deleted", result.Deleted)
	return result, nil
}

// list also returns the store's total, which can exceed the songs returned when the store pages.
func (l *LikedSongs) list(ctx context.Context, owner string) ([]models.LikedSong, int, error) {
	list, err := l.store.ListDocuments(ctx, models.CollectionLiked, models.OwnedBy(owner).Newest())
	if err != nil {
		l.logger.Error("failed to list liked songs", "error", err)
		return nil, 0, fmt.Errorf("failed to list liked songs: %w", err)
	}

	liked := make([]models.LikedSong, 0, len(list.Documents))
	for _, doc := range list.Documents {
		var s models.LikedSong
		if err := doc.Decode(&s); err != nil {
			return nil, 0, err
		}
		liked = append(liked, s)
	}
	return liked, max(list.Total, len(liked)), nil
}
