package server

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicdash/internal/formatter"
	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/services"
	"github.com/desertthunder/musicdash/internal/shared"
	"github.com/desertthunder/musicdash/internal/tasks"
)

// Deps are the components the API serves.
type Deps struct {
	NewAuth   AuthFactory
	Playlists *tasks.PlaylistEngine
	Likes     *tasks.LikedSongs
	History   *tasks.HistoryRecorder
	Player    *tasks.Player
	Dashboard *tasks.Dashboard
	Search    services.SearchProvider
}

// API is the dashboard's JSON API.
type API struct {
	deps   Deps
	logger *log.Logger
}

// NewAPI creates a new [API]. A nil logger discards output.
func NewAPI(deps Deps, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &API{deps: deps, logger: logger}
}

// NewRouter returns a [BasicRouter] with logging and panic recovery serving every API route.
func (a *API) NewRouter() *BasicRouter {
	r := NewBasicRouter()
	r.Use(RequestLogger(a.logger), Recoverer(a.logger))
	a.Register(r)
	return r
}

// Register adds the API routes to r.
func (a *API) Register(r Router) {
	authed := RequireSession(a.deps.NewAuth, a.logger)
	private := func(method, path string, fn http.HandlerFunc) {
		r.Handle(method, path, authed(fn))
	}

	r.Handle(http.MethodGet, "/api/health", http.HandlerFunc(a.health))
	r.Handle(http.MethodPost, "/api/signup", http.HandlerFunc(a.signup))
	r.Handle(http.MethodPost, "/api/login", http.HandlerFunc(a.login))
	r.Handle(http.MethodPost, "/api/password-strength", http.HandlerFunc(a.passwordStrength))

	private(http.MethodGet, "/api/account", a.account)
	private(http.MethodPatch, "/api/account", a.updateProfile)
	private(http.MethodDelete, "/api/account", a.deleteAccount)
	private(http.MethodPost, "/api/logout", a.logout)

	private(http.MethodGet, "/api/stats", a.stats)
	private(http.MethodGet, "/api/search", a.search)
	private(http.MethodPost, "/api/play", a.play)
	private(http.MethodGet, "/api/history", a.history)

	private(http.MethodGet, "/api/likes", a.listLikes)
	private(http.MethodPost, "/api/likes", a.like)
	private(http.MethodDelete, "/api/likes", a.clearLikes)
	private(http.MethodDelete, "/api/likes/{id}", a.unlike)

	private(http.MethodGet, "/api/playlists", a.listPlaylists)
	private(http.MethodPost, "/api/playlists", a.createPlaylist)
	private(http.MethodGet, "/api/playlists/{id}", a.getPlaylist)
	private(http.MethodPatch, "/api/playlists/{id}", a.updatePlaylist)
	private(http.MethodDelete, "/api/playlists/{id}", a.deletePlaylist)
	private(http.MethodGet, "/api/playlists/{id}/songs", a.listSongs)
	private(http.MethodPost, "/api/playlists/{id}/songs", a.addSong)
	private(http.MethodPost, "/api/playlists/{id}/songs/remove", a.removeSelected)
	private(http.MethodDelete, "/api/playlists/{id}/songs/{songID}", a.removeSong)
	private(http.MethodGet, "/api/playlists/{id}/export", a.exportPlaylist)
}

// outcomeBody reports an [tasks.Outcome]; informational outcomes are still 200.
type outcomeBody struct {
	Outcome       string `json:"outcome"`
	Message       string `json:"message"`
	Informational bool   `json:"informational"`
	Data          any    `json:"data,omitempty"`
}

func newOutcome(o tasks.Outcome, data any) outcomeBody {
	return outcomeBody{Outcome: o.String(), Message: o.Message(), Informational: o.Informational(), Data: data}
}

type loginBody struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Confirm  string `json:"confirm"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	account := tasks.NewAccount(a.deps.NewAuth(), a.logger)
	sess, err := account.Signup(r.Context(), tasks.SignupInput{Name: in.Name, Email: in.Email, Password: in.Password, Confirm: in.Confirm})
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	user, _ := sess.User()
	writeJSON(w, http.StatusCreated, loginBody{Token: account.Token(), User: &user})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	account := tasks.NewAccount(a.deps.NewAuth(), a.logger)
	sess, err := account.Login(r.Context(), tasks.LoginInput{Email: in.Email, Password: in.Password})
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	user, _ := sess.User()
	writeJSON(w, http.StatusOK, loginBody{Token: account.Token(), User: &user})
}

func (a *API) passwordStrength(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	s := shared.MeasurePassword(in.Password)
	writeJSON(w, http.StatusOK, map[string]any{"strength": s.String(), "percent": s.Percent()})
}

func (a *API) account(w http.ResponseWriter, r *http.Request) {
	user, err := authFrom(r.Context()).session.User()
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	ra := authFrom(r.Context())
	if err := ra.account.UpdateProfile(r.Context(), ra.session, tasks.ProfileInput{Name: in.Name, Email: in.Email}); err != nil {
		writeError(w, a.logger, err)
		return
	}

	user, _ := ra.session.User()
	writeJSON(w, http.StatusOK, user)
}

func (a *API) deleteAccount(w http.ResponseWriter, r *http.Request) {
	ra := authFrom(r.Context())
	if err := ra.account.DeleteAccount(r.Context(), ra.session); err != nil {
		writeError(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	ra := authFrom(r.Context())
	if err := ra.account.Logout(r.Context(), ra.session); err != nil {
		writeError(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.deps.Dashboard.Stats(r.Context(), authFrom(r.Context()).session, nil)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	songs, err := a.deps.Search.Search(r.Context(), query)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "url": services.SearchURL(query), "songs": songs})
}

func (a *API) play(w http.ResponseWriter, r *http.Request) {
	var song models.Song
	if err := decode(w, r, &song); err != nil {
		writeError(w, a.logger, err)
		return
	}
	if song.ID == "" {
		writeError(w, a.logger, shared.Invalid("id", "song id is required"))
		return
	}

	writeJSON(w, http.StatusOK, a.deps.Player.Play(r.Context(), authFrom(r.Context()).session, song))
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	limit := tasks.RecentHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, a.logger, shared.Invalid("limit", "limit must be a non-negative number"))
			return
		}
		limit = n
	}

	entries, err := a.deps.History.Recent(r.Context(), authFrom(r.Context()).session, limit)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) listLikes(w http.ResponseWriter, r *http.Request) {
	liked, err := a.deps.Likes.List(r.Context(), authFrom(r.Context()).session)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, liked)
}

func (a *API) like(w http.ResponseWriter, r *http.Request) {
	var song models.Song
	if err := decode(w, r, &song); err != nil {
		writeError(w, a.logger, err)
		return
	}

	outcome, liked, err := a.deps.Likes.Like(r.Context(), authFrom(r.Context()).session, song)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutcome(outcome, liked))
}

func (a *API) unlike(w http.ResponseWriter, r *http.Request) {
	id, err := requirePath(r, "id")
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	outcome, err := a.deps.Likes.Unlike(r.Context(), authFrom(r.Context()).session, id)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutcome(outcome, nil))
}

type clearBody struct {
	Total     int    `json:"total"`
	Deleted   int    `json:"deleted"`
	Remaining int    `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

func (a *API) clearLikes(w http.ResponseWriter, r *http.Request) {
	res, err := a.deps.Likes.ClearAll(r.Context(), authFrom(r.Context()).session, nil)
	body := clearBody{Total: res.Total, Deleted: res.Deleted, Remaining: res.Remaining()}
	if err != nil {
		if res.Total == 0 {
			writeError(w, a.logger, err)
			return
		}
		a.logger.Error("clearing liked songs stopped", "deleted", res.Deleted, "total", res.Total, "error", err)
		body.Error = gatewayMessage
		writeJSON(w, statusFor(err), body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *API) listPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.deps.Playlists.ListPlaylists(r.Context(), authFrom(r.Context()).session)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *API) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var in playlistRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	p, err := a.deps.Playlists.CreatePlaylist(r.Context(), authFrom(r.Context()).session, tasks.PlaylistInput{Name: in.Name, Description: in.Description})
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) getPlaylist(w http.ResponseWriter, r *http.Request) {
	p, err := a.deps.Playlists.GetPlaylist(r.Context(), authFrom(r.Context()).session, r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) updatePlaylist(w http.ResponseWriter, r *http.Request) {
	var in playlistRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	p, err := a.deps.Playlists.UpdatePlaylist(r.Context(), authFrom(r.Context()).session, r.PathValue("id"), tasks.PlaylistInput{Name: in.Name, Description: in.Description})
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.Playlists.DeletePlaylist(r.Context(), authFrom(r.Context()).session, r.PathValue("id")); err != nil {
		writeError(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := a.deps.Playlists.ListSongs(r.Context(), authFrom(r.Context()).session, r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (a *API) addSong(w http.ResponseWriter, r *http.Request) {
	var song models.Song
	if err := decode(w, r, &song); err != nil {
		writeError(w, a.logger, err)
		return
	}

	outcome, err := a.deps.Playlists.AddSong(r.Context(), authFrom(r.Context()).session, r.PathValue("id"), song)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutcome(outcome, nil))
}

func (a *API) removeSong(w http.ResponseWriter, r *http.Request) {
	outcome, err := a.deps.Playlists.RemoveSong(r.Context(), authFrom(r.Context()).session, r.PathValue("id"), r.PathValue("songID"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutcome(outcome, nil))
}

// removeSelected removes the posted selection in one write.
func (a *API) removeSelected(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDs []string `json:"ids"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	sel := tasks.NewSelectionSet(in.IDs...)
	removed, err := a.deps.Playlists.RemoveSelected(r.Context(), authFrom(r.Context()).session, r.PathValue("id"), sel)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (a *API) exportPlaylist(w http.ResponseWriter, r *http.Request) {
	format, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	p, err := a.deps.Playlists.GetPlaylist(r.Context(), authFrom(r.Context()).session, r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	data, err := formatter.Export(p, format)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
