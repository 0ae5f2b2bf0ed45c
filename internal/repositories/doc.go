// Package repositories implements the local (SQLite) gateways.
//
// Key Implementations:
//   - [DocumentRepository] : owner-scoped document store over one documents table, with
//     revision-guarded updates ([models.RevisionedStore])
//   - [AuthRepository] : accounts (bcrypt hashes, soft deletes) and bearer sessions
//   - [LocalAuth] : [models.AuthGateway] for a single client, built on [AuthRepository]
//
// Sequence numbers provide stable insertion ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
