// Package services implements the remote backend and the song search providers.
//
// # Remote Backend
//
// The hosted API is document oriented: collections of JSON documents under one database, plus an
// account API. [NewRemote] resolves the project configuration once ([FetchRemoteConfig] reads the
// published {projectId, endPoint} document) and wires:
//   - [Transport]: rate limited ([rate.Limiter]) and circuit broken ([gobreaker.CircuitBreaker])
//     JSON requests carrying the project header
//   - [AccountClient]: [models.AuthGateway] using the OAuth2 password grant; after login the token
//     source authenticates the shared transport
//   - [DocumentClient]: [models.DocumentStore] with equality, ordering and limit queries
//
// # Error Handling
//
// Non-2xx responses become [StatusError], which unwraps to the shared sentinels:
//   - 404 : [shared.ErrDocumentNotFound]
//   - 401, 403 : [shared.ErrNotAuthenticated]
//   - 400 and any other rejection : [shared.ErrGateway]
//   - 5xx, open breaker, network failure : [shared.ErrServiceUnavailable]
//
// # Search
//
// [SearchProvider] has two implementations. [SimulatedSearch] returns five canned variants of the
// query and never leaves the process. [IndexSearch] keeps a bleve in-memory index of songs the user
// already has (liked, played, in playlists).
package services
