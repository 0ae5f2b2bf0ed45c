// package models defines the data model for the music dashboard
package models

import (
	"time"
)

// Collection names used by the dashboard.
const (
	CollectionPlaylists = "playlists"
	CollectionLiked     = "liked"
	CollectionHistory   = "history"
)

// Song is a track reference sourced from a search provider. Songs are never updated, only referenced.
type Song struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Source string `json:"source,omitempty"`
	URL    string `json:"url,omitempty"`
}

// DisplayTitle returns the title or a placeholder for untitled songs.
func (s Song) DisplayTitle() string {
	if s.Title == "" {
		return "Unknown Song"
	}
	return s.Title
}

// DisplayArtist returns the artist or a placeholder.
func (s Song) DisplayArtist() string {
	if s.Artist == "" {
		return "Unknown Artist"
	}
	return s.Artist
}

// Playlist is an owner's ordered, duplicate-free list of songs.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Songs       []Song    `json:"songs"`
	Revision    int       `json:"revision"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LikedSong records that an owner liked a song. At most one exists per (OwnerID, SongID).
type LikedSong struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	SongID    string    `json:"songId"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Source    string    `json:"source,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Song returns the liked song as a playable [Song].
func (l LikedSong) Song() Song {
	return Song{ID: l.SongID, Title: l.Title, Artist: l.Artist, Source: l.Source, URL: l.URL}
}

// HistoryEntry is one play. Entries are append-only.
type HistoryEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	SongID    string    `json:"songId"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	CreatedAt time.Time `json:"createdAt"`
}

// Song returns the played song.
func (h HistoryEntry) Song() Song {
	return Song{ID: h.SongID, Title: h.Title, Artist: h.Artist}
}

// User is an authenticated account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthSession is the result of a successful login.
type AuthSession struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}
