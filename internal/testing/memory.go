package testing

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
)

// Op names a gateway call for failure injection and call counting.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpGet    Op = "get"
)

type memoryEntry struct {
	doc models.Document
	seq int
}

// MemoryStore is an in-memory [models.RevisionedStore] with failure injection.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]map[string]*memoryEntry
	seq      int
	calls    map[Op]int
	failNth  map[Op]map[int]error
	failAll  map[Op]error
	clock    time.Time
	onUpdate func(collection, id string)
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]map[string]*memoryEntry),
		calls:   make(map[Op]int),
		failNth: make(map[Op]map[int]error),
		failAll: make(map[Op]error),
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FailNth makes the nth call to op, counted from now, return err.
func (s *MemoryStore) FailNth(op Op, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNth[op] == nil {
		s.failNth[op] = make(map[int]error)
	}
	s.failNth[op][s.calls[op]+n] = err
}

// FailAlways makes every call to op return err until [MemoryStore.ClearFailures].
func (s *MemoryStore) FailAlways(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll[op] = err
}

// ClearFailures removes every injected failure.
func (s *MemoryStore) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.failNth)
	clear(s.failAll)
}

// OnUpdate registers fn to run before each update is applied, outside the store lock.
// It lets tests interleave a competing writer.
func (s *MemoryStore) OnUpdate(fn func(collection, id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// Calls returns how many times op was called, failed calls included.
func (s *MemoryStore) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Count returns the number of documents in collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries[collection])
}

// Documents returns a copy of every document in collection in insertion order.
func (s *MemoryStore) Documents(collection string) []models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(collection, false)
}

// WithoutRevisions hides [models.RevisionedStore] so callers take the last-write-wins path.
func (s *MemoryStore) WithoutRevisions() models.DocumentStore {
	return plainStore{s}
}

func (s *MemoryStore) call(op Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if err := s.failAll[op]; err != nil {
		return err
	}
	if err, ok := s.failNth[op][s.calls[op]]; ok {
		delete(s.failNth[op], s.calls[op])
		return err
	}
	return nil
}

func (s *MemoryStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *MemoryStore) sorted(collection string, desc bool) []models.Document {
	entries := slices.Collect(maps.Values(s.entries[collection]))
	slices.SortFunc(entries, func(a, b *memoryEntry) int {
		if desc {
			return cmp.Compare(b.seq, a.seq)
		}
		return cmp.Compare(a.seq, b.seq)
	})

	out := make([]models.Document, 0, len(entries))
	for _, e := range entries {
		out = append(out, copyDocument(e.doc))
	}
	return out
}

func (s *MemoryStore) ListDocuments(ctx context.Context, collection string, q models.Query) (*models.DocumentList, error) {
	if err := s.call(OpList); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := &models.DocumentList{Documents: []models.Document{}}
	for _, doc := range s.sorted(collection, q.Descending) {
		if !q.Matches(doc.Fields) {
			continue
		}
		list.Total++
		if q.Max > 0 && len(list.Documents) >= q.Max {
			continue
		}
		list.Documents = append(list.Documents, doc)
	}
	return list, nil
}

func (s *MemoryStore) CreateDocument(ctx context.Context, collection, id string, fields models.Fields) (*models.Document, error) {
	if err := s.call(OpCreate); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = shared.GenerateID()
	}
	if s.entries[collection] == nil {
		s.entries[collection] = make(map[string]*memoryEntry)
	}
	if _, exists := s.entries[collection][id]; exists {
		return nil, fmt.Errorf("%w: document %s already exists", shared.ErrGateway, id)
	}

	now := s.tick()
	s.seq++
	e := &memoryEntry{
		doc: models.Document{ID: id, Collection: collection, Revision: 1, CreatedAt: now, UpdatedAt: now, Fields: fields.Clone()},
		seq: s.seq,
	}
	s.entries[collection][id] = e

	doc := copyDocument(e.doc)
	return &doc, nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, collection, id string) (*models.Document, error) {
	if err := s.call(OpGet); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", shared.ErrDocumentNotFound, collection, id)
	}
	doc := copyDocument(e.doc)
	return &doc, nil
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, collection, id string, fields models.Fields) (*models.Document, error) {
	return s.update(collection, id, 0, fields)
}

func (s *MemoryStore) UpdateDocumentAt(ctx context.Context, collection, id string, revision int, fields models.Fields) (*models.Document, error) {
	return s.update(collection, id, revision, fields)
}

func (s *MemoryStore) update(collection, id string, revision int, fields models.Fields) (*models.Document, error) {
	if err := s.call(OpUpdate); err != nil {
		return nil, err
	}

	s.mu.Lock()
	hook := s.onUpdate
	s.mu.Unlock()
	if hook != nil {
		hook(collection, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", shared.ErrDocumentNotFound, collection, id)
	}
	if revision > 0 && e.doc.Revision != revision {
		return nil, fmt.Errorf("%w: %s/%s", shared.ErrRevisionConflict, collection, id)
	}

	maps.Copy(e.doc.Fields, fields.Clone())
	e.doc.Revision++
	e.doc.UpdatedAt = s.tick()

	doc := copyDocument(e.doc)
	return &doc, nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := s.call(OpDelete); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[collection][id]; !ok {
		return fmt.Errorf("%w: %s/%s", shared.ErrDocumentNotFound, collection, id)
	}
	delete(s.entries[collection], id)
	return nil
}

func copyDocument(d models.Document) models.Document {
	d.Fields = d.Fields.Clone()
	return d
}

type plainStore struct {
	s *MemoryStore
}

func (p plainStore) ListDocuments(ctx context.Context, collection string, q models.Query) (*models.DocumentList, error) {
	return p.s.ListDocuments(ctx, collection, q)
}

func (p plainStore) CreateDocument(ctx context.Context, collection, id string, fields models.Fields) (*models.Document, error) {
	return p.s.CreateDocument(ctx, collection, id, fields)
}

func (p plainStore) UpdateDocument(ctx context.Context, collection, id string, fields models.Fields) (*models.Document, error) {
	return p.s.UpdateDocument(ctx, collection, id, fields)
}

func (p plainStore) DeleteDocument(ctx context.Context, collection, id string) error {
	return p.s.DeleteDocument(ctx, collection, id)
}

func (p plainStore) GetDocument(ctx context.Context, collection, id string) (*models.Document, error) {
	return p.s.GetDocument(ctx, collection, id)
}

// MemoryAuth is an in-memory [models.AuthGateway].
type MemoryAuth struct {
	mu        sync.Mutex
	users     map[string]*memoryUser
	tokens    map[string]string
	token     string
	Failures  map[string]error // keyed by method name, e.g. "Logout"
	LogoutHit int
}

type memoryUser struct {
	user     models.User
	password string
}

// NewMemoryAuth creates an empty [MemoryAuth].
func NewMemoryAuth() *MemoryAuth {
	return &MemoryAuth{users: make(map[string]*memoryUser), tokens: make(map[string]string), Failures: make(map[string]error)}
}

func (a *MemoryAuth) fail(method string) error {
	return a.Failures[method]
}

func (a *MemoryAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.fail("CurrentUser"); err != nil {
		return nil, err
	}
	for _, u := range a.users {
		if u.user.ID == a.tokens[a.token] {
			user := u.user
			return &user, nil
		}
	}
	return nil, shared.ErrNotAuthenticated
}

func (a *MemoryAuth) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.fail("Signup"); err != nil {
		return nil, err
	}
	key := strings.ToLower(email)
	if _, ok := a.users[key]; ok {
		return nil, shared.ErrAccountExists
	}
	u := &memoryUser{user: models.User{ID: shared.GenerateID(), Name: name, Email: key}, password: password}
	a.users[key] = u
	user := u.user
	return &user, nil
}

func (a *MemoryAuth) Login(ctx context.Context, email, password string) (*models.AuthSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.fail("Login"); err != nil {
		return nil, err
	}
	u, ok := a.users[strings.ToLower(email)]
	if !ok || u.password != password {
		return nil, shared.ErrInvalidCredentials
	}
	a.token = shared.GenerateID()
	a.tokens[a.token] = u.user.ID
	return &models.AuthSession{Token: a.token, User: u.user}, nil
}

func (a *MemoryAuth) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.LogoutHit++
	if err := a.fail("Logout"); err != nil {
		return err
	}
	delete(a.tokens, a.token)
	a.token = ""
	return nil
}

func (a *MemoryAuth) DeleteAccount(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.fail("DeleteAccount"); err != nil {
		return err
	}
	id := a.tokens[a.token]
	for email, u := range a.users {
		if u.user.ID == id {
			delete(a.users, email)
		}
	}
	delete(a.tokens, a.token)
	a.token = ""
	return nil
}

func (a *MemoryAuth) UpdateDisplayName(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.fail("UpdateDisplayName"); err != nil {
		return err
	}
	id := a.tokens[a.token]
	for _, u := range a.users {
		if u.user.ID == id {
			u.user.Name = name
			return nil
		}
	}
	return shared.ErrNotAuthenticated
}

func (a *MemoryAuth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *MemoryAuth) Restore(ctx context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.tokens[token]; !ok {
		return shared.ErrNotAuthenticated
	}
	a.token = token
	return nil
}

// User returns the stored user with email, for assertions.
func (a *MemoryAuth) User(email string) (models.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[strings.ToLower(email)]
	if !ok {
		return models.User{}, false
	}
	return u.user, true
}
