// Remote document store
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
)

// uniqueID asks the API to assign a document id.
const uniqueID = "unique()"

// DocumentClient implements [models.DocumentStore] against the hosted document API.
//
// Documents live under /databases/{database}/collections/{collection}/documents. The API has no
// revision compare-and-swap, so the client does not implement [models.RevisionedStore].
type DocumentClient struct {
	transport *Transport
	database  string
}

// NewDocumentClient creates a [DocumentClient] for database.
func NewDocumentClient(t *Transport, database string) *DocumentClient {
	return &DocumentClient{transport: t, database: database}
}

func (c *DocumentClient) path(collection string, id ...string) string {
	p := fmt.Sprintf("/databases/%s/collections/%s/documents", url.PathEscape(c.database), url.PathEscape(collection))
	for _, part := range id {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// remoteQuery is one entry of the queries[] parameter.
type remoteQuery struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

// encodeQuery turns a [models.Query] into queries[] parameters.
func encodeQuery(q models.Query) (url.Values, error) {
	var queries []remoteQuery
	for _, cond := range q.Conditions {
		queries = append(queries, remoteQuery{Method: "equal", Attribute: cond.Field, Values: []any{cond.Value}})
	}
	if q.Descending {
		queries = append(queries, remoteQuery{Method: "orderDesc", Attribute: "$createdAt"})
	} else {
		queries = append(queries, remoteQuery{Method: "orderAsc", Attribute: "$createdAt"})
	}
	if q.Max > 0 {
		queries = append(queries, remoteQuery{Method: "limit", Values: []any{q.Max}})
	}

	values := url.Values{}
	for _, rq := range queries {
		data, err := json.Marshal(rq)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode query: %w", shared.ErrInvalidInput, err)
		}
		values.Add("queries[]", string(data))
	}
	return values, nil
}

// remoteDocument is a document as the API returns it: metadata under $-prefixed keys, fields inline.
type remoteDocument map[string]any

func (r remoteDocument) toDocument(collection string) models.Document {
	doc := models.Document{Collection: collection, Fields: models.Fields{}}
	for k, v := range r {
		switch k {
		case "$id":
			doc.ID, _ = v.(string)
		case "$createdAt":
			doc.CreatedAt = parseTime(v)
		case "$updatedAt":
			doc.UpdatedAt = parseTime(v)
		case "$collectionId":
			if s, ok := v.(string); ok && s != "" {
				doc.Collection = s
			}
		default:
			if !strings.HasPrefix(k, "$") {
				doc.Fields[k] = v
			}
		}
	}
	return doc
}

func parseTime(v any) time.Time {
	s, _ := v.(string)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ListDocuments returns the documents in collection matching q.
func (c *DocumentClient) ListDocuments(ctx context.Context, collection string, q models.Query) (*models.DocumentList, error) {
	params, err := encodeQuery(q)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Total     int              `json:"total"`
		Documents []remoteDocument `json:"documents"`
	}
	if err := c.transport.do(ctx, http.MethodGet, c.path(collection), params, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}

	list := &models.DocumentList{Total: resp.Total, Documents: make([]models.Document, 0, len(resp.Documents))}
	for _, rd := range resp.Documents {
		list.Documents = append(list.Documents, rd.toDocument(collection))
	}
	return list, nil
}

// CreateDocument inserts a document; an empty id lets the API assign one.
func (c *DocumentClient) CreateDocument(ctx context.Context, collection, id string, fields models.Fields) (*models.Document, error) {
	if id == "" {
		id = uniqueID
	}
	body := map[string]any{"documentId": id, "data": fields}

	var rd remoteDocument
	if err := c.transport.do(ctx, http.MethodPost, c.path(collection), nil, body, &rd); err != nil {
		return nil, fmt.Errorf("failed to create %s document: %w", collection, err)
	}

	doc := rd.toDocument(collection)
	return &doc, nil
}

// UpdateDocument replaces the given top-level fields.
func (c *DocumentClient) UpdateDocument(ctx context.Context, collection, id string, fields models.Fields) (*models.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", shared.ErrInvalidArgument)
	}

	var rd remoteDocument
	if err := c.transport.do(ctx, http.MethodPatch, c.path(collection, id), nil, map[string]any{"data": fields}, &rd); err != nil {
		return nil, fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}

	doc := rd.toDocument(collection)
	return &doc, nil
}

// DeleteDocument removes a document.
func (c *DocumentClient) DeleteDocument(ctx context.Context, collection, id string) error {
	if id == "" {
		return fmt.Errorf("%w: document id is required", shared.ErrInvalidArgument)
	}
	if err := c.transport.do(ctx, http.MethodDelete, c.path(collection, id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// GetDocument fetches a document by id.
func (c *DocumentClient) GetDocument(ctx context.Context, collection, id string) (*models.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: %s/<empty>", shared.ErrDocumentNotFound, collection)
	}

	var rd remoteDocument
	if err := c.transport.do(ctx, http.MethodGet, c.path(collection, id), nil, nil, &rd); err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	doc := rd.toDocument(collection)
	return &doc, nil
}
