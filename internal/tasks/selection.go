package tasks

import (
	"context"
	"slices"
	"sync"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/session"
	"github.com/desertthunder/musicdash/internal/shared"
)

// SelectionSet is the set of song ids checked for batch removal from the open playlist.
// It lives only as long as the [PlaylistView] that owns it.
type SelectionSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewSelectionSet creates a selection holding ids.
func NewSelectionSet(ids ...string) *SelectionSet {
	s := &SelectionSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// Toggle adds id when checked is true and removes it otherwise.
func (s *SelectionSet) Toggle(id string, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	if checked {
		s.ids[id] = struct{}{}
	} else {
		delete(s.ids, id)
	}
}

// Has reports whether id is selected.
func (s *SelectionSet) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *SelectionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected ids in sorted order.
func (s *SelectionSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Clear empties the selection.
func (s *SelectionSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

func (s *SelectionSet) snapshot() map[string]struct{} {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out
}

// PlaylistView is the controller for one open playlist and its [SelectionSet].
//
// Opening another playlist or closing the view clears the selection.
type PlaylistView struct {
	engine *PlaylistEngine
	sess   *session.Session

	mu         sync.Mutex
	playlistID string
	songs      []models.Song
	selection  *SelectionSet
}

// NewPlaylistView creates a view with nothing open.
func NewPlaylistView(engine *PlaylistEngine, sess *session.Session) *PlaylistView {
	return &PlaylistView{engine: engine, sess: sess, selection: NewSelectionSet()}
}

// Open loads playlistID and resets the selection. A failed load leaves the view as it was.
func (v *PlaylistView) Open(ctx context.Context, playlistID string) (*models.Playlist, error) {
	p, err := v.engine.GetPlaylist(ctx, v.sess, playlistID)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.playlistID = p.ID
	v.songs = p.Songs
	v.selection.Clear()
	return p, nil
}

// PlaylistID returns the open playlist, empty when closed.
func (v *PlaylistView) PlaylistID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playlistID
}

// Songs returns the songs as of the last successful load or write.
func (v *PlaylistView) Songs() []models.Song {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.songs)
}

// Selection returns the view's selection set.
func (v *PlaylistView) Selection() *SelectionSet {
	return v.selection
}

// Toggle checks or unchecks a song for batch removal.
func (v *PlaylistView) Toggle(songID string, checked bool) error {
	if v.PlaylistID() == "" {
		return shared.Invalid("playlist", "no playlist is open")
	}
	v.selection.Toggle(songID, checked)
	return nil
}

// RemoveSelected removes the checked songs and shows the playlist as written.
// On failure the selection and the displayed songs are untouched.
func (v *PlaylistView) RemoveSelected(ctx context.Context) (int, error) {
	id := v.PlaylistID()
	if id == "" {
		return 0, shared.Invalid("playlist", "no playlist is open")
	}

	removed, p, err := v.engine.removeSelected(ctx, v.sess, id, v.selection)
	if err != nil {
		return 0, err
	}
	v.show(p)
	return removed, nil
}

// RemoveSong removes one song and shows the playlist as written. The selection is cleared on success.
func (v *PlaylistView) RemoveSong(ctx context.Context, songID string) (Outcome, error) {
	id := v.PlaylistID()
	if id == "" {
		return 0, shared.Invalid("playlist", "no playlist is open")
	}

	outcome, p, err := v.engine.removeSong(ctx, v.sess, id, songID)
	if err != nil {
		return 0, err
	}
	v.selection.Clear()
	v.show(p)
	return outcome, nil
}

// Close forgets the open playlist and its selection.
func (v *PlaylistView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playlistID = ""
	v.songs = nil
	v.selection.Clear()
}

// show replaces the displayed songs with p's, unless another playlist was opened meanwhile.
func (v *PlaylistView) show(p *models.Playlist) {
	if p == nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playlistID == p.ID {
		v.songs = slices.Clone(p.Songs)
	}
}
