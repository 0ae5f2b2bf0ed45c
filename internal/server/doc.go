// Package server provides HTTP routing, middleware, and the dashboard's JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] runs in the order it was added: the first one registered is the outermost wrapper.
//
// The [BasicRouter] implementation registers method patterns ("GET /api/playlists/{id}") on an
// [http.ServeMux], so path values are available through [http.Request.PathValue].
//
// # Sessions
//
// [RequireSession] resolves the "Authorization: Bearer" token through a fresh gateway per request
// and attaches the resulting session; handlers never share session state.
//
// # Responses
//
// Informational outcomes (already in playlist, already liked, nothing to remove) are 200 with an
// "outcome" field. Errors map to statuses:
//   - validation : 400 with per-field messages
//   - not authenticated, session ended, bad credentials : 401
//   - playlist or document not found : 404
//   - account exists : 409
//   - gateway failures : 502 with a generic message; the cause is logged
package server
