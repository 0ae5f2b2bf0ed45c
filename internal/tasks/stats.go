package tasks

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/session"
)

// minutesPerSong is the assumed average song length used for listening time.
const minutesPerSong = 3.5

// Stats are the numbers on the dashboard home page.
type Stats struct {
	LikedSongs     int                   `json:"likedSongs"`
	Playlists      int                   `json:"playlists"`
	TotalSongs     int                   `json:"totalSongs"`
	ListeningHours int                   `json:"listeningHours"`
	Recent         []models.HistoryEntry `json:"recent"`
}

// Dashboard aggregates the user's likes, playlists and history.
type Dashboard struct {
	likes     *LikedSongs
	playlists *PlaylistEngine
	history   *HistoryRecorder
}

// NewDashboard creates a new [Dashboard].
func NewDashboard(likes *LikedSongs, playlists *PlaylistEngine, history *HistoryRecorder) *Dashboard {
	return &Dashboard{likes: likes, playlists: playlists, history: history}
}

// Stats fetches the three lists concurrently and stops at the first failure.
// Counts come from the store's totals, so a store that pages its lists still reports every record.
func (d *Dashboard) Stats(ctx context.Context, sess *session.Session, progress chan<- ProgressUpdate) (*Stats, error) {
	owner, err := sess.UserID()
	if err != nil {
		return nil, err
	}

	var (
		likedTotal     int
		playlists      []models.Playlist
		playlistsTotal int
		recent         []models.HistoryEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		_, likedTotal, err = d.likes.list(gctx, owner)
		if err == nil {
			sendProgress(progress, statsUpdate(FetchLiked, likedTotal))
		}
		return err
	})
	g.Go(func() error {
		var err error
		playlists, playlistsTotal, err = d.playlists.listPlaylists(gctx, sess)
		if err == nil {
			sendProgress(progress, statsUpdate(FetchPlaylists, playlistsTotal))
		}
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = d.history.Recent(gctx, sess, RecentHistoryLimit)
		if err == nil {
			sendProgress(progress, statsUpdate(FetchHistory, len(recent)))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Stats{LikedSongs: likedTotal, Playlists: playlistsTotal, Recent: recent}
	for _, p := range playlists {
		stats.TotalSongs += p.SongCount()
	}
	stats.ListeningHours = ListeningHours(stats.TotalSongs)

	sendProgress(progress, ProgressUpdate{Phase: ComputeStats, Step: 1, Total: 1, Message: "Dashboard ready", Data: stats})
	return stats, nil
}

// ListeningHours estimates listening time for n songs in whole hours, rounded down.
func ListeningHours(n int) int {
	return int(float64(n) * minutesPerSong / 60)
}

// Library returns every distinct song the user has liked, played or put in a playlist, for indexing.
func (d *Dashboard) Library(ctx context.Context, sess *session.Session) ([]models.Song, error) {
	if _, err := sess.UserID(); err != nil {
		return nil, err
	}

	var (
		liked     []models.LikedSong
		playlists []models.Playlist
		played    []models.HistoryEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		liked, err = d.likes.List(gctx, sess)
		return err
	})
	g.Go(func() (err error) {
		playlists, err = d.playlists.ListPlaylists(gctx, sess)
		return err
	})
	g.Go(func() (err error) {
		played, err = d.history.List(gctx, sess)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	songs := []models.Song{}
	add := func(s models.Song) {
		if s.ID == "" {
			return
		}
		if _, ok := seen[s.ID]; ok {
			return
		}
		seen[s.ID] = struct{}{}
		songs = append(songs, s)
	}

	for _, l := range liked {
		add(l.Song())
	}
	for _, p := range playlists {
		for _, s := range p.Songs {
			add(s)
		}
	}
	for _, h := range played {
		add(h.Song())
	}
	return songs, nil
}
