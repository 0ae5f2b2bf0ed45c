package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
)

// DocumentRepository implements [models.RevisionedStore] on a single SQLite documents table.
//
// Fields are stored as a JSON object; the owner is copied into its own column so owner-scoped
// lists use the index.
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new [DocumentRepository] with the given database connection
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = "id, collection, fields, revision, created_at, updated_at"

// ListDocuments returns documents in collection matching q, ordered by insertion.
func (r *DocumentRepository) ListDocuments(ctx context.Context, collection string, q models.Query) (*models.DocumentList, error) {
	where, args := r.where(collection, q)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	query := "SELECT " + documentColumns + " FROM documents WHERE " + where
	if q.Descending {
		query += " ORDER BY sequence DESC"
	} else {
		query += " ORDER BY sequence ASC"
	}
	if q.Max > 0 {
		query += " LIMIT ?"
		args = append(args, q.Max)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	list := &models.DocumentList{Total: total, Documents: []models.Document{}}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		list.Documents = append(list.Documents, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return list, nil
}

func (r *DocumentRepository) where(collection string, q models.Query) (string, []any) {
	clauses := []string{"collection = ?"}
	args := []any{collection}

	for _, c := range q.Conditions {
		if c.Field == models.OwnerField {
			clauses = append(clauses, "owner_id = ?")
		} else {
			clauses = append(clauses, "CAST(json_extract(fields, ?) AS TEXT) = ?")
			args = append(args, "$."+c.Field)
		}
		args = append(args, c.Value)
	}
	return strings.Join(clauses, " AND "), args
}

// CreateDocument inserts a document with a generated ID when id is empty
func (r *DocumentRepository) CreateDocument(ctx context.Context, collection, id string, fields models.Fields) (*models.Document, error) {
	if id == "" {
		id = shared.GenerateID()
	}
	fields = fields.Clone()

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}

	now := time.Now().UTC()
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		sequence, err := nextSequence(ctx, tx, "documents")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}

		query := `
			INSERT INTO documents (id, sequence, collection, owner_id, fields, revision, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query, id, sequence, collection, fields.String(models.OwnerField), string(data), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.Document{
		ID:         id,
		Collection: collection,
		Revision:   1,
		CreatedAt:  now,
		UpdatedAt:  now,
		Fields:     fields,
	}, nil
}

// GetDocument retrieves a document by ID
func (r *DocumentRepository) GetDocument(ctx context.Context, collection, id string) (*models.Document, error) {
	return r.get(ctx, r.db, collection, id)
}

func (r *DocumentRepository) get(ctx context.Context, q querier, collection, id string) (*models.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents WHERE collection = ? AND id = ?"

	doc, err := scanDocument(q.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", shared.ErrDocumentNotFound, collection, id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDocument merges fields into the stored document and bumps its revision
func (r *DocumentRepository) UpdateDocument(ctx context.Context, collection, id string, fields models.Fields) (*models.Document, error) {
	return r.update(ctx, collection, id, 0, fields)
}

// UpdateDocumentAt is [DocumentRepository.UpdateDocument] guarded by the expected revision.
func (r *DocumentRepository) UpdateDocumentAt(ctx context.Context, collection, id string, revision int, fields models.Fields) (*models.Document, error) {
	if revision <= 0 {
		return nil, fmt.Errorf("%w: revision must be positive", shared.ErrInvalidArgument)
	}
	return r.update(ctx, collection, id, revision, fields)
}

// update applies a merge; a zero revision skips the compare step.
func (r *DocumentRepository) update(ctx context.Context, collection, id string, revision int, fields models.Fields) (*models.Document, error) {
	var updated *models.Document

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := r.get(ctx, tx, collection, id)
		if err != nil {
			return err
		}
		if revision > 0 && current.Revision != revision {
			return fmt.Errorf("%w: %s/%s at revision %d, expected %d", shared.ErrRevisionConflict, collection, id, current.Revision, revision)
		}

		merged := current.Fields.Clone()
		maps.Copy(merged, fields.Clone())

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode fields: %w", err)
		}

		now := time.Now().UTC()
		query := `
			UPDATE documents
			SET fields = ?, owner_id = ?, revision = revision + 1, updated_at = ?
			WHERE collection = ? AND id = ? AND revision = ?
		`
		result, err := tx.ExecContext(ctx, query, string(data), merged.String(models.OwnerField), now, collection, id, current.Revision)
		if err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: %s/%s changed during update", shared.ErrRevisionConflict, collection, id)
		}

		current.Fields = merged
		current.Revision++
		current.UpdatedAt = now
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDocument removes a document by ID
func (r *DocumentRepository) DeleteDocument(ctx context.Context, collection, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = ? AND id = ?", collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s/%s", shared.ErrDocumentNotFound, collection, id)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a row into a [models.Document]
func scanDocument(row scanner) (*models.Document, error) {
	var (
		doc  models.Document
		data string
	)

	err := row.Scan(&doc.ID, &doc.Collection, &data, &doc.Revision, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields of %s: %w", doc.ID, err)
	}
	if doc.Fields == nil {
		doc.Fields = models.Fields{}
	}

	return &doc, nil
}
