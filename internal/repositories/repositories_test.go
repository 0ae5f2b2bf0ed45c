package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenMigrated(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// setupFileDB creates a migrated on-disk database with a connection pool
func setupFileDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenMigrated(shared.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "musicdash.db"),
		MaxOpenConns: 8,
		MaxIdleConns: 8,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func playlistFields(owner, name string, songs ...string) models.Fields {
	list := make([]any, 0, len(songs))
	for _, id := range songs {
		list = append(list, map[string]any{"id": id, "title": "Title " + id})
	}
	return models.Fields{"ownerId": owner, "name": name, "songs": list}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(ctx, db, "documents")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(ctx, db, "missing"); err == nil {
		t.Error("expected error for a table without a sequence")
	}
}

func TestDocumentRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewDocumentRepository(setupTestDB(t))

		doc, err := repo.CreateDocument(ctx, models.CollectionPlaylists, "", playlistFields("u1", "Mix", "a"))
		if err != nil {
			t.Fatalf("failed to create document: %v", err)
		}
		if doc.ID == "" {
			t.Error("document ID should be set after creation")
		}
		if doc.Revision != 1 {
			t.Errorf("expected revision 1, got %d", doc.Revision)
		}

		explicit, err := repo.CreateDocument(ctx, models.CollectionLiked, "chosen-id", models.Fields{"ownerId": "u1"})
		if err != nil {
			t.Fatalf("failed to create document: %v", err)
		}
		if explicit.ID != "chosen-id" {
			t.Errorf("expected chosen-id, got %s", explicit.ID)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewDocumentRepository(setupTestDB(t))
		created, _ := repo.CreateDocument(ctx, models.CollectionPlaylists, "", playlistFields("u1", "Mix", "a", "b"))

		got, err := repo.GetDocument(ctx, models.CollectionPlaylists, created.ID)
		if err != nil {
			t.Fatalf("failed to get document: %v", err)
		}
		if got.OwnerID() != "u1" || got.Fields.String("name") != "Mix" {
			t.Errorf("unexpected fields %+v", got.Fields)
		}

		var p models.Playlist
		if err := got.Decode(&p); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(p.Songs) != 2 || p.Songs[1].ID != "b" || p.CreatedAt.IsZero() {
			t.Errorf("unexpected playlist %+v", p)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewDocumentRepository(setupTestDB(t))
		created, _ := repo.CreateDocument(ctx, models.CollectionPlaylists, "", playlistFields("u1", "Mix", "a"))

		updated, err := repo.UpdateDocument(ctx, models.CollectionPlaylists, created.ID, models.Fields{"name": "Renamed"})
		if err != nil {
			t.Fatalf("failed to update document: %v", err)
		}
		if updated.Revision != 2 {
			t.Errorf("expected revision 2, got %d", updated.Revision)
		}

		got, _ := repo.GetDocument(ctx, models.CollectionPlaylists, created.ID)
		if got.Fields.String("name") != "Renamed" || got.OwnerID() != "u1" {
			t.Errorf("expected merge to keep other fields, got %+v", got.Fields)
		}
		if songs, _ := got.Fields["songs"].([]any); len(songs) != 1 {
			t.Errorf("expected songs to be kept, got %v", got.Fields["songs"])
		}
	})

	t.Run("UpdateAt", func(t *testing.T) {
		repo := NewDocumentRepository(setupTestDB(t))
		created, _ := repo.CreateDocument(ctx, models.CollectionPlaylists, "", playlistFields("u1", "Mix"))

		if _, err := repo.UpdateDocumentAt(ctx, models.CollectionPlaylists, created.ID, 1, models.Fields{"name": "first"}); err != nil {
			t.Fatalf("failed to update at revision 1: %v", err)
		}

		got, _ := repo.GetDocument(ctx, models.CollectionPlaylists, created.ID)
		if got.Fields.String("name") != "first" || got.Revision != 2 {
			t.Errorf("unexpected document %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewDocumentRepository(setupTestDB(t))
		created, _ := repo.CreateDocument(ctx, models.CollectionLiked, "", models.Fields{"ownerId": "u1"})

		if err := repo.DeleteDocument(ctx, models.CollectionLiked, created.ID); err != nil {
			t.Fatalf("failed to delete document: %v", err)
		}
		if _, err := repo.GetDocument(ctx, models.CollectionLiked, created.ID); err == nil {
			t.Error("expected error when getting deleted document")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewDocumentRepository(setupTestDB(t))

		for i, owner := range []string{"u1", "u2", "u1", "u1"} {
			fields := models.Fields{"ownerId": owner, "songId": fmt.Sprintf("s%d", i), "title": fmt.Sprintf("Song %d", i)}
			if _, err := repo.CreateDocument(ctx, models.CollectionLiked, "", fields); err != nil {
				t.Fatalf("failed to create document: %v", err)
			}
		}
		repo.CreateDocument(ctx, models.CollectionHistory, "", models.Fields{"ownerId": "u1", "songId": "s0"})

		all, err := repo.ListDocuments(ctx, models.CollectionLiked, models.OwnedBy("u1"))
		if err != nil {
			t.Fatalf("failed to list documents: %v", err)
		}
		if all.Total != 3 || len(all.Documents) != 3 {
			t.Fatalf("expected 3 documents, got %d/%d", all.Total, len(all.Documents))
		}
		if all.Documents[0].Fields.String("songId") != "s0" {
			t.Errorf("expected oldest first, got %v", all.Documents[0].Fields)
		}

		newest, _ := repo.ListDocuments(ctx, models.CollectionLiked, models.OwnedBy("u1").Newest().Limit(2))
		if newest.Total != 3 || len(newest.Documents) != 2 {
			t.Fatalf("expected total 3 with 2 returned, got %d/%d", newest.Total, len(newest.Documents))
		}
		if newest.Documents[0].Fields.String("songId") != "s3" {
			t.Errorf("expected newest first, got %v", newest.Documents[0].Fields)
		}

		filtered, _ := repo.ListDocuments(ctx, models.CollectionLiked, models.OwnedBy("u1").Equal("songId", "s2"))
		if filtered.Total != 1 {
			t.Errorf("expected 1 match, got %d", filtered.Total)
		}

		other, _ := repo.ListDocuments(ctx, models.CollectionLiked, models.OwnedBy("u1").Equal("songId", "s1"))
		if other.Total != 0 {
			t.Errorf("expected other owner's document to be excluded, got %d", other.Total)
		}
	})

	t.Run("concurrent creates get distinct sequences", func(t *testing.T) {
		repo := NewDocumentRepository(setupTestDB(t))

		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := repo.CreateDocument(ctx, models.CollectionHistory, "", models.Fields{"ownerId": "u1", "n": i}); err != nil {
					t.Errorf("failed to create document: %v", err)
				}
			}()
		}
		wg.Wait()

		list, _ := repo.ListDocuments(ctx, models.CollectionHistory, models.OwnedBy("u1"))
		if list.Total != 10 {
			t.Errorf("expected 10 documents, got %d", list.Total)
		}
	})
	t.Run("concurrent updates on disk", func(t *testing.T) {
		repo := NewDocumentRepository(setupFileDB(t))

		ids := make([]string, 16)
		for i := range ids {
			doc, err := repo.CreateDocument(ctx, models.CollectionPlaylists, "", playlistFields("u1", fmt.Sprintf("Mix %d", i)))
			if err != nil {
				t.Fatalf("failed to create document: %v", err)
			}
			ids[i] = doc.ID
		}

		for round := 1; round <= 5; round++ {
			var wg sync.WaitGroup
			for _, id := range ids {
				wg.Add(1)
				go func() {
					defer wg.Done()
					current, err := repo.GetDocument(ctx, models.CollectionPlaylists, id)
					if err != nil {
						t.Errorf("failed to get document: %v", err)
						return
					}
					fields := models.Fields{"name": fmt.Sprintf("round %d", round)}
					if _, err := repo.UpdateDocumentAt(ctx, models.CollectionPlaylists, id, current.Revision, fields); err != nil {
						t.Errorf("failed to update %s in round %d: %v", id, round, err)
					}
				}()
			}
			wg.Wait()
		}

		for _, id := range ids {
			doc, err := repo.GetDocument(ctx, models.CollectionPlaylists, id)
			if err != nil {
				t.Fatalf("failed to get document: %v", err)
			}
			if doc.Revision != 6 || doc.Fields.String("name") != "round 5" {
				t.Errorf("expected revision 6 named round 5, got %d %q", doc.Revision, doc.Fields.String("name"))
			}
		}
	})
}
