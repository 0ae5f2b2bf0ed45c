package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/session"
	"github.com/desertthunder/musicdash/internal/shared"
)

// RecentHistoryLimit is how many plays the dashboard shows.
const RecentHistoryLimit = 4

// HistoryRecorder appends play records. Recording is best effort: failures are logged, never returned.
type HistoryRecorder struct {
	store  models.DocumentStore
	logger *log.Logger
}

type historyFields struct {
	OwnerID string `json:"ownerId"`
	SongID  string `json:"songId"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
}

// NewHistoryRecorder creates a new [HistoryRecorder]. A nil logger discards output.
func NewHistoryRecorder(store models.DocumentStore, logger *log.Logger) *HistoryRecorder {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &HistoryRecorder{store: store, logger: logger}
}

// Record appends one entry for song. Repeated plays produce repeated entries.
// It reports whether the entry was written.
func (h *HistoryRecorder) Record(ctx context.Context, sess *session.Session, song models.Song) bool {
	owner, err := sess.UserID()
	if err != nil {
		h.logger.Warn("history not recorded", "song", song.ID, "error", err)
		return false
	}

	fields, err := models.ToFields(historyFields{OwnerID: owner, SongID: song.ID, Title: song.Title, Artist: song.Artist})
	if err != nil {
		h.logger.Error("failed to encode history entry", "song", song.ID, "error", err)
		return false
	}

	if _, err := h.store.CreateDocument(ctx, models.CollectionHistory, "", fields); err != nil {
		h.logger.Error("failed to record history", "song", song.ID, "error", err)
		return false
	}

	h.logger.Debug("history recorded", "song", song.ID)
	return true
}

// Recent returns the newest limit entries. A limit of zero or less returns everything.
func (h *HistoryRecorder) Recent(ctx context.Context, sess *session.Session, limit int) ([]models.HistoryEntry, error) {
	owner, err := sess.UserID()
	if err != nil {
		return nil, err
	}

	q := models.OwnedBy(owner).Newest()
	if limit > 0 {
		q = q.Limit(limit)
	}

	list, err := h.store.ListDocuments(ctx, models.CollectionHistory, q)
	if err != nil {
		h.logger.Error("failed to list history", "error", err)
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]models.HistoryEntry, 0, len(list.Documents))
	for _, doc := range list.Documents {
		var e models.HistoryEntry
		if err := doc.Decode(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// List returns the whole history, newest first.
func (h *HistoryRecorder) List(ctx context.Context, sess *session.Session) ([]models.HistoryEntry, error) {
	return h.Recent(ctx, sess, 0)
}

// NowPlaying is what [Player.Play] hands back to the caller.
type NowPlaying struct {
	Song    models.Song `json:"song"`
	Message string      `json:"message"`
}

// Player starts playback and records history in the background.
type Player struct {
	history *HistoryRecorder
	wg      sync.WaitGroup
}

// NewPlayer creates a new [Player].
func NewPlayer(history *HistoryRecorder) *Player {
	return &Player{history: history}
}

// Play returns immediately; the history write runs on its own goroutine and survives ctx cancellation.
func (p *Player) Play(ctx context.Context, sess *session.Session, song models.Song) NowPlaying {
	bg := context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.history.Record(bg, sess, song)
	}()

	return NowPlaying{
		Song:    song,
		Message: fmt.Sprintf("Now playing: %s by %s", song.DisplayTitle(), song.DisplayArtist()),
	}
}

// Wait blocks until every pending history write has finished.
func (p *Player) Wait() {
	p.wg.Wait()
}
