package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/musicdash/internal/models"
)

// fakeAPI is a minimal hosted API: one account, password grant, and documents per collection.
type fakeAPI struct {
	t *testing.T

	mu       sync.Mutex
	name     string
	email    string
	password string
	deleted  bool
	tokens   map[string]bool
	docs     map[string][]map[string]any
	next     int
	queries  []string
	projects []string
	fail     int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{t: t, tokens: map[string]bool{}, docs: map[string][]map[string]any{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", api.token)
	mux.HandleFunc("GET /account", api.auth(api.getAccount))
	mux.HandleFunc("POST /account", api.createAccount)
	mux.HandleFunc("PATCH /account/name", api.auth(api.rename))
	mux.HandleFunc("DELETE /account/sessions/current", api.auth(api.logout))
	mux.HandleFunc("DELETE /account", api.auth(api.deleteAccount))
	mux.HandleFunc("GET /databases/music/collections/{c}/documents", api.auth(api.list))
	mux.HandleFunc("POST /databases/music/collections/{c}/documents", api.auth(api.create))
	mux.HandleFunc("GET /databases/music/collections/{c}/documents/{id}", api.auth(api.get))
	mux.HandleFunc("PATCH /databases/music/collections/{c}/documents/{id}", api.auth(api.update))
	mux.HandleFunc("DELETE /databases/music/collections/{c}/documents/{id}", api.auth(api.remove))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.projects = append(api.projects, r.Header.Get(projectHeader))
		failing := api.fail > 0
		if failing {
			api.fail--
		}
		api.mu.Unlock()

		if failing {
			writeError(w, http.StatusServiceUnavailable, "down")
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg, "code": status, "type": "general_error"})
}

func (a *fakeAPI) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		a.mu.Lock()
		ok := a.tokens[token]
		a.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing scope")
			return
		}
		next(w, r)
	}
}

func (a *fakeAPI) token(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.Form.Get("grant_type") != "password" || a.deleted ||
		r.Form.Get("username") != a.email || r.Form.Get("password") != a.password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_grant"})
		return
	}
	a.next++
	tok := fmt.Sprintf("tok-%d", a.next)
	a.tokens[tok] = true
	writeJSON(w, http.StatusOK, map[string]any{"access_token": tok, "token_type": "Bearer", "expires_in": 3600})
}

func (a *fakeAPI) user() map[string]any {
	return map[string]any{"$id": "u1", "name": a.name, "email": a.email, "$createdAt": "2024-01-01T00:00:00.000+00:00"}
}

func (a *fakeAPI) getAccount(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	writeJSON(w, http.StatusOK, a.user())
}

func (a *fakeAPI) createAccount(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.email != "" && !a.deleted {
		writeError(w, http.StatusConflict, "user_already_exists")
		return
	}
	a.name, a.email, a.password, a.deleted = body["name"], body["email"], body["password"], false
	writeJSON(w, http.StatusCreated, a.user())
}

func (a *fakeAPI) rename(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.name = body["name"]
	writeJSON(w, http.StatusOK, a.user())
}

func (a *fakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	w.WriteHeader(http.StatusNoContent)
}

func (a *fakeAPI) deleteAccount(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleted = true
	a.tokens = map[string]bool{}
	w.WriteHeader(http.StatusNoContent)
}

func (a *fakeAPI) list(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	docs := append([]map[string]any(nil), a.docs[r.PathValue("c")]...)
	limit := 0
	for _, raw := range r.URL.Query()["queries[]"] {
		a.queries = append(a.queries, raw)

		var q remoteQuery
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			writeError(w, http.StatusBadRequest, "bad query")
			return
		}
		switch q.Method {
		case "equal":
			var kept []map[string]any
			for _, d := range docs {
				if fmt.Sprint(d[q.Attribute]) == fmt.Sprint(q.Values[0]) {
					kept = append(kept, d)
				}
			}
			docs = kept
		case "orderDesc":
			sort.SliceStable(docs, func(i, j int) bool { return docs[i]["$createdAt"].(string) > docs[j]["$createdAt"].(string) })
		case "limit":
			limit = int(q.Values[0].(float64))
		}
	}

	total := len(docs)
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "documents": docs})
}

func (a *fakeAPI) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocumentID string         `json:"documentId"`
		Data       map[string]any `json:"data"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.next++
	id := body.DocumentID
	if id == uniqueID {
		id = fmt.Sprintf("doc-%d", a.next)
	}
	stamp := time.Date(2024, 1, 1, 0, 0, a.next, 0, time.UTC).Format(time.RFC3339Nano)
	doc := map[string]any{"$id": id, "$collectionId": r.PathValue("c"), "$createdAt": stamp, "$updatedAt": stamp}
	for k, v := range body.Data {
		doc[k] = v
	}
	a.docs[r.PathValue("c")] = append(a.docs[r.PathValue("c")], doc)
	writeJSON(w, http.StatusCreated, doc)
}

func (a *fakeAPI) find(c, id string) (int, bool) {
	for i, d := range a.docs[c] {
		if d["$id"] == id {
			return i, true
		}
	}
	return 0, false
}

func (a *fakeAPI) get(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.find(r.PathValue("c"), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "document_not_found")
		return
	}
	writeJSON(w, http.StatusOK, a.docs[r.PathValue("c")][i])
}

func (a *fakeAPI) update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data map[string]any `json:"data"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.find(r.PathValue("c"), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "document_not_found")
		return
	}
	doc := a.docs[r.PathValue("c")][i]
	for k, v := range body.Data {
		doc[k] = v
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *fakeAPI) remove(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := r.PathValue("c")
	i, ok := a.find(c, r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "document_not_found")
		return
	}
	a.docs[c] = append(a.docs[c][:i], a.docs[c][i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

// newRemote wires clients against srv with a signed-up account.
func newRemote(t *testing.T, api *fakeAPI, srv *httptest.Server) (*AccountClient, *DocumentClient, *Transport) {
	t.Helper()
	api.name, api.email, api.password = "Ada", "ada@example.com", "Secret123!"

	tr := NewTransport(TransportOptions{
		Endpoint:          srv.URL,
		ProjectID:         "proj-1",
		RequestsPerSecond: 1000,
		Burst:             100,
		FailureThreshold:  2,
		OpenTimeout:       time.Minute,
	})
	return NewAccountClient(tr, AccountOptions{ClientID: "musicdash"}), NewDocumentClient(tr, "music"), tr
}

func login(t *testing.T, accounts *AccountClient) {
	t.Helper()
	if _, err := accounts.Login(context.Background(), "ada@example.com", "Secret123!"); err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
}

func playlistFields(owner, name string) models.Fields {
	return models.Fields{"ownerId": owner, "name": name, "songs": []any{}}
}
