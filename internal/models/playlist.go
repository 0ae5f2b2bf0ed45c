package models

// HasSong reports whether a song with id is in the playlist.
func (p Playlist) HasSong(id string) bool {
	for _, s := range p.Songs {
		if s.ID == id {
			return true
		}
	}
	return false
}

// WithSong returns the songs with song appended, or false when its id is already present.
//
// The receiver's slice is never modified.
func (p Playlist) WithSong(song Song) ([]Song, bool) {
	if p.HasSong(song.ID) {
		return p.Songs, false
	}
	out := make([]Song, 0, len(p.Songs)+1)
	out = append(out, p.Songs...)
	return append(out, song), true
}

// WithoutSong returns the songs minus the first entry with id.
// Later duplicates, if an upstream writer left any, stay in place.
func (p Playlist) WithoutSong(id string) ([]Song, bool) {
	for i, s := range p.Songs {
		if s.ID != id {
			continue
		}
		out := make([]Song, 0, len(p.Songs)-1)
		out = append(out, p.Songs[:i]...)
		return append(out, p.Songs[i+1:]...), true
	}
	return p.Songs, false
}

// WithoutSongs drops every song whose id is in ids and returns how many were dropped.
func (p Playlist) WithoutSongs(ids map[string]struct{}) ([]Song, int) {
	out := make([]Song, 0, len(p.Songs))
	for _, s := range p.Songs {
		if _, drop := ids[s.ID]; drop {
			continue
		}
		out = append(out, s)
	}
	return out, len(p.Songs) - len(out)
}

// SongCount returns the number of songs, tolerating a nil slice.
func (p Playlist) SongCount() int {
	return len(p.Songs)
}
