package models

import "context"

// DocumentStore is the persistence gateway: a document store over named collections.
//
// The store does not isolate owners; callers scope every list with an ownerId condition
// and check ownership of documents fetched by id.
type DocumentStore interface {
	// ListDocuments returns the documents in collection matching q.
	ListDocuments(ctx context.Context, collection string, q Query) (*DocumentList, error)

	// CreateDocument inserts a document. An empty id lets the store assign one.
	CreateDocument(ctx context.Context, collection, id string, fields Fields) (*Document, error)

	// UpdateDocument replaces the given top-level fields; other fields are kept.
	UpdateDocument(ctx context.Context, collection, id string, fields Fields) (*Document, error)

	// DeleteDocument removes a document; missing documents report shared.ErrDocumentNotFound.
	DeleteDocument(ctx context.Context, collection, id string) error

	// GetDocument fetches a document by id.
	GetDocument(ctx context.Context, collection, id string) (*Document, error)
}

// RevisionedStore is implemented by stores that can compare-and-swap on a document revision.
type RevisionedStore interface {
	DocumentStore

	// UpdateDocumentAt behaves like UpdateDocument but fails with shared.ErrRevisionConflict
	// when the stored revision is not revision.
	UpdateDocumentAt(ctx context.Context, collection, id string, revision int, fields Fields) (*Document, error)
}

// AuthGateway is the account/session backend.
type AuthGateway interface {
	// CurrentUser returns the logged in user or shared.ErrNotAuthenticated.
	CurrentUser(ctx context.Context) (*User, error)

	Signup(ctx context.Context, name, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*AuthSession, error)
	Logout(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	UpdateDisplayName(ctx context.Context, name string) error

	// Token returns an opaque token that Restore accepts in a later process.
	Token() string

	// Restore resumes a session from a token produced by Token.
	Restore(ctx context.Context, token string) error
}
