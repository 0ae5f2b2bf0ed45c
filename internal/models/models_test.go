package models

import (
	"testing"
	"time"
)

func songs(ids ...string) []Song {
	out := make([]Song, 0, len(ids))
	for _, id := range ids {
		out = append(out, Song{ID: id, Title: "t" + id})
	}
	return out
}

func ids(songs []Song) string {
	s := ""
	for _, song := range songs {
		s += song.ID
	}
	return s
}

func TestPlaylist(t *testing.T) {
	t.Run("WithSong", func(t *testing.T) {
		p := Playlist{Songs: songs("a", "b")}

		got, ok := p.WithSong(Song{ID: "c"})
		if !ok || ids(got) != "abc" {
			t.Errorf("expected abc, got %s (%v)", ids(got), ok)
		}
		if ids(p.Songs) != "ab" {
			t.Error("receiver must not change")
		}

		got, ok = p.WithSong(Song{ID: "a", Title: "different"})
		if ok || ids(got) != "ab" {
			t.Errorf("expected duplicate to be rejected, got %s (%v)", ids(got), ok)
		}

		empty := Playlist{}
		got, ok = empty.WithSong(Song{ID: "x"})
		if !ok || ids(got) != "x" {
			t.Errorf("expected x, got %s", ids(got))
		}
	})

	t.Run("WithoutSong", func(t *testing.T) {
		tests := []struct {
			name    string
			songs   []Song
			remove  string
			want    string
			changed bool
		}{
			{name: "middle", songs: songs("a", "b", "c"), remove: "b", want: "ac", changed: true},
			{name: "absent", songs: songs("a", "b"), remove: "z", want: "ab", changed: false},
			{name: "first duplicate only", songs: songs("a", "b", "a"), remove: "a", want: "ba", changed: true},
			{name: "empty", songs: nil, remove: "a", want: "", changed: false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := Playlist{Songs: tt.songs}
				got, changed := p.WithoutSong(tt.remove)
				if ids(got) != tt.want || changed != tt.changed {
					t.Errorf("expected %s (%v), got %s (%v)", tt.want, tt.changed, ids(got), changed)
				}
			})
		}
	})

	t.Run("WithoutSongs", func(t *testing.T) {
		p := Playlist{Songs: songs("A", "B", "C")}
		got, n := p.WithoutSongs(map[string]struct{}{"B": {}, "stale": {}})
		if ids(got) != "AC" || n != 1 {
			t.Errorf("expected AC with 1 removed, got %s with %d", ids(got), n)
		}
		if ids(p.Songs) != "ABC" {
			t.Error("receiver must not change")
		}
	})
}

func TestDocument(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := Document{
		ID:        "p1",
		Revision:  3,
		CreatedAt: created,
		UpdatedAt: created,
		Fields: Fields{
			"ownerId": "u1",
			"name":    "Mix",
			"songs":   []any{map[string]any{"id": "a", "title": "Song"}},
		},
	}

	t.Run("Decode", func(t *testing.T) {
		var p Playlist
		if err := doc.Decode(&p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ID != "p1" || p.Revision != 3 || p.OwnerID != "u1" || !p.CreatedAt.Equal(created) {
			t.Errorf("unexpected playlist %+v", p)
		}
		if len(p.Songs) != 1 || p.Songs[0].DisplayArtist() != "Unknown Artist" {
			t.Errorf("unexpected songs %+v", p.Songs)
		}
		if _, ok := doc.Fields["id"]; ok {
			t.Error("decode must not modify the document")
		}
	})

	t.Run("OwnedBy", func(t *testing.T) {
		if !doc.OwnedBy("u1") || doc.OwnedBy("u2") || doc.OwnedBy("") {
			t.Error("unexpected ownership result")
		}
	})

	t.Run("Clone is deep", func(t *testing.T) {
		c := doc.Fields.Clone()
		c["songs"].([]any)[0].(map[string]any)["id"] = "changed"
		if doc.Fields["songs"].([]any)[0].(map[string]any)["id"] != "a" {
			t.Error("clone shares nested values")
		}
	})
}

func TestQuery(t *testing.T) {
	base := OwnedBy("u1")
	q := base.Equal("songId", "s1").Newest().Limit(1)

	if len(base.Conditions) != 1 {
		t.Error("Equal must not modify the receiver")
	}
	if q.Owner() != "u1" || !q.Descending || q.Max != 1 {
		t.Errorf("unexpected query %+v", q)
	}

	tests := []struct {
		name   string
		fields Fields
		want   bool
	}{
		{name: "match", fields: Fields{"ownerId": "u1", "songId": "s1"}, want: true},
		{name: "other owner", fields: Fields{"ownerId": "u2", "songId": "s1"}, want: false},
		{name: "missing field", fields: Fields{"ownerId": "u1"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := q.Matches(tt.fields); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
