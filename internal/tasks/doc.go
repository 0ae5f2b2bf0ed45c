// Package tasks implements the dashboard workflows on top of the gateway ports in models.
//
// # Core Operations
//
//  1. [PlaylistEngine] : playlist CRUD and song membership
//     - AddSong appends unless the song id is present ([OutcomeAlreadyExists])
//     - RemoveSong removes at most one entry ([OutcomeNotPresent] when absent)
//     - RemoveSelected removes a [SelectionSet] in one read-modify-write and clears it on success
//     - ListSongs returns the ordered songs
//
//     - BulkExport writes many playlists through a rate-limited worker pool plus a JSON manifest
//
//  2. [PlaylistView] : controller for one open playlist and its selection
//
//  3. [LikedSongs] : one like per (owner, song), idempotent unlike, non-transactional ClearAll
//
//  4. [HistoryRecorder] and [Player] : best-effort play history recorded in the background
//
//  5. [Account] and [Dashboard] : validated account forms and aggregated stats
//
// Every operation takes the caller's [session.Session] explicitly and scopes gateway calls to its user.
//
// # Concurrency
//
// Membership mutations on one playlist are serialized in-process. When the store implements
// [models.RevisionedStore] the write is also a compare-and-swap on the document revision, retried a
// bounded number of times.
//
// # Progress Reporting
//
// Long-running operations accept a progress channel. The [ProgressUpdate] struct contains phase,
// step counters and messages. Updates use select with default to prevent blocking.
package tasks
