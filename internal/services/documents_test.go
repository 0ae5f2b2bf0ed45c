package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
)

func TestDocumentClient(t *testing.T) {
	ctx := context.Background()

	t.Run("requires login", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		_, docs, _ := newRemote(t, api, srv)

		_, err := docs.ListDocuments(ctx, models.CollectionLiked, models.OwnedBy("u1"))
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Create and Get", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		accounts, docs, _ := newRemote(t, api, srv)
		login(t, accounts)

		created, err := docs.CreateDocument(ctx, models.CollectionPlaylists, "", playlistFields("u1", "Mix"))
		if err != nil {
			t.Fatalf("failed to create document: %v", err)
		}
		if created.ID == "" || created.ID == uniqueID || created.CreatedAt.IsZero() {
			t.Errorf("expected assigned id and timestamp, got %+v", created)
		}

		got, err := docs.GetDocument(ctx, models.CollectionPlaylists, created.ID)
		if err != nil {
			t.Fatalf("failed to get document: %v", err)
		}
		if got.OwnerID() != "u1" || got.Fields.String("name") != "Mix" {
			t.Errorf("unexpected fields %+v", got.Fields)
		}
		if _, ok := got.Fields["$id"]; ok {
			t.Error("metadata keys must not leak into fields")
		}
		if got.Collection != models.CollectionPlaylists {
			t.Errorf("expected collection playlists, got %s", got.Collection)
		}
	})

	t.Run("Create with chosen id", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		accounts, docs, _ := newRemote(t, api, srv)
		login(t, accounts)

		doc, err := docs.CreateDocument(ctx, models.CollectionLiked, "chosen", models.Fields{"ownerId": "u1"})
		if err != nil || doc.ID != "chosen" {
			t.Errorf("expected chosen id, got %+v, %v", doc, err)
		}
	})

	t.Run("Update merges fields", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		accounts, docs, _ := newRemote(t, api, srv)
		login(t, accounts)
		created, _ := docs.CreateDocument(ctx, models.CollectionPlaylists, "", playlistFields("u1", "Mix"))

		songs := []any{map[string]any{"id": "a", "title": "A"}}
		updated, err := docs.UpdateDocument(ctx, models.CollectionPlaylists, created.ID, models.Fields{"songs": songs})
		if err != nil {
			t.Fatalf("failed to update: %v", err)
		}

		var p models.Playlist
		if err := updated.Decode(&p); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if p.Name != "Mix" || len(p.Songs) != 1 || p.Songs[0].ID != "a" {
			t.Errorf("unexpected playlist %+v", p)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		accounts, docs, _ := newRemote(t, api, srv)
		login(t, accounts)
		created, _ := docs.CreateDocument(ctx, models.CollectionLiked, "", models.Fields{"ownerId": "u1"})

		if err := docs.DeleteDocument(ctx, models.CollectionLiked, created.ID); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := docs.DeleteDocument(ctx, models.CollectionLiked, created.ID); !errors.Is(err, shared.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got %v", err)
		}
		if _, err := docs.GetDocument(ctx, models.CollectionLiked, created.ID); !errors.Is(err, shared.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got %v", err)
		}
	})

	t.Run("List sends queries", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		accounts, docs, _ := newRemote(t, api, srv)
		login(t, accounts)

		for i, owner := range []string{"u1", "u2", "u1", "u1"} {
			docs.CreateDocument(ctx, models.CollectionHistory, "", models.Fields{"ownerId": owner, "songId": string(rune('a' + i))})
		}

		list, err := docs.ListDocuments(ctx, models.CollectionHistory, models.OwnedBy("u1").Newest().Limit(2))
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if list.Total != 3 || len(list.Documents) != 2 {
			t.Fatalf("expected 3 total with 2 returned, got %d/%d", list.Total, len(list.Documents))
		}
		if list.Documents[0].Fields.String("songId") != "d" {
			t.Errorf("expected newest first, got %v", list.Documents[0].Fields)
		}

		var methods []string
		for _, raw := range api.queries {
			var q remoteQuery
			json.Unmarshal([]byte(raw), &q)
			methods = append(methods, q.Method)
		}
		want := []string{"equal", "orderDesc", "limit"}
		if len(methods) != len(want) {
			t.Fatalf("expected queries %v, got %v", want, methods)
		}
		for i := range want {
			if methods[i] != want[i] {
				t.Errorf("expected queries %v, got %v", want, methods)
			}
		}
	})

	t.Run("empty id", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		_, docs, _ := newRemote(t, api, srv)

		if _, err := docs.GetDocument(ctx, models.CollectionLiked, ""); !errors.Is(err, shared.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got %v", err)
		}
		if err := docs.DeleteDocument(ctx, models.CollectionLiked, ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := docs.UpdateDocument(ctx, models.CollectionLiked, "", nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestEncodeQuery(t *testing.T) {
	values, err := encodeQuery(models.OwnedBy("u1").Equal("songId", "s1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	queries := values["queries[]"]
	if len(queries) != 3 {
		t.Fatalf("expected 3 queries, got %v", queries)
	}
	if queries[0] != `{"method":"equal","attribute":"ownerId","values":["u1"]}` {
		t.Errorf("unexpected owner query %s", queries[0])
	}
	if queries[2] != `{"method":"orderAsc","attribute":"$createdAt"}` {
		t.Errorf("expected ascending order by default, got %s", queries[2])
	}
}
