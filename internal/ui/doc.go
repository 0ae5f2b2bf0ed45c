// Package ui renders the CLI's terminal output with lipgloss.
//
// Notices come in three kinds so informational outcomes ("Song already in playlist") read
// differently from successes and from errors:
//   - [Success] : a write happened
//   - [Info] : the requested state already held, nothing was written
//   - [Error] : the operation failed; [ErrorMessage] turns sentinel errors into user-facing text
//
// The list renderers ([Songs], [Playlists], [LikedSongs], [History], [Stats]) print the ids the
// other commands take as arguments.
package ui
