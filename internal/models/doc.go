// Package models defines domain entities and gateway ports for the musicdash dashboard.
//
// The package contains three categories of types:
//
// 1. Entities: values owned by exactly one user
//   - [Song] : Track reference from a search provider, never mutated
//   - [Playlist] : Ordered, duplicate-free list of songs
//   - [LikedSong] : One per (owner, song)
//   - [HistoryEntry] : Append-only play record
//   - [User] and [AuthSession] : Account data from the auth gateway
//
// 2. Gateway records: [Document], [Fields], [DocumentList] and [Query] describe what the
// persistence gateway stores and how lists are filtered. Entities are decoded from documents
// with [Document.Decode].
//
// 3. Ports: [DocumentStore], [RevisionedStore] and [AuthGateway] are implemented by the local
// SQLite repositories and by the remote HTTP clients in services.
//
// Playlist membership transformations ([Playlist.WithSong], [Playlist.WithoutSong],
// [Playlist.WithoutSongs]) are pure and never modify the receiver.
package models
