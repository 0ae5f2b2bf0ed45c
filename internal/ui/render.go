package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
	"github.com/desertthunder/musicdash/internal/tasks"
)

const timeLayout = "Jan 2, 2006 15:04"

// Title renders a section heading.
func Title(s string) string {
	return styles.title.Render(s)
}

func songLine(i int, s models.Song) string {
	return fmt.Sprintf("%3d. %s - %s %s", i+1, s.DisplayArtist(), s.DisplayTitle(), styles.help.Render("["+s.ID+"]"))
}

// Songs renders a numbered song list.
func Songs(songs []models.Song) string {
	if len(songs) == 0 {
		return Help("No songs")
	}

	lines := make([]string, len(songs))
	for i, s := range songs {
		lines[i] = songLine(i, s)
	}
	return strings.Join(lines, "\n")
}

// Playlists renders one line per playlist with its song count.
func Playlists(playlists []models.Playlist) string {
	if len(playlists) == 0 {
		return Help("No playlists yet")
	}

	lines := make([]string, len(playlists))
	for i, p := range playlists {
		line := fmt.Sprintf("%s (%d songs) %s", p.Name, p.SongCount(), styles.help.Render("["+p.ID+"]"))
		if p.Description != "" {
			line += "\n     " + p.Description
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// Playlist renders a playlist header followed by its songs.
func Playlist(p *models.Playlist) string {
	header := lipgloss.JoinVertical(lipgloss.Left,
		Title(p.Name),
		fmt.Sprintf("ID: %s", p.ID),
		fmt.Sprintf("Songs: %d", p.SongCount()),
		fmt.Sprintf("Updated: %s", p.UpdatedAt.Format(timeLayout)),
	)
	if p.Description != "" {
		header += "\n" + p.Description
	}
	return header + "\n\n" + Songs(p.Songs)
}

// LikedSongs renders liked songs with the record id used to unlike them.
func LikedSongs(liked []models.LikedSong) string {
	if len(liked) == 0 {
		return Help("No liked songs yet")
	}

	lines := make([]string, len(liked))
	for i, l := range liked {
		s := l.Song()
		lines[i] = fmt.Sprintf("%3d. %s - %s %s", i+1, s.DisplayArtist(), s.DisplayTitle(), styles.help.Render("["+l.ID+"]"))
	}
	return strings.Join(lines, "\n")
}

// History renders plays newest first.
func History(entries []models.HistoryEntry) string {
	if len(entries) == 0 {
		return Help("Nothing played yet")
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		s := e.Song()
		lines[i] = fmt.Sprintf("%s  %s - %s", styles.help.Render(e.CreatedAt.Format(timeLayout)), s.DisplayArtist(), s.DisplayTitle())
	}
	return strings.Join(lines, "\n")
}

// Stats renders the dashboard numbers and recent plays.
func Stats(s *tasks.Stats) string {
	counts := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("Liked songs:     %d", s.LikedSongs),
		fmt.Sprintf("Playlists:       %d", s.Playlists),
		fmt.Sprintf("Playlist songs:  %d", s.TotalSongs),
		fmt.Sprintf("Listening time:  %dh", s.ListeningHours),
	)
	return Title("Dashboard") + "\n" + counts + "\n\n" + Title("Recently played") + "\n" + History(s.Recent)
}

// Strength renders a password strength meter.
func Strength(s shared.PasswordStrength) string {
	filled := int(s)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", int(shared.StrengthVeryStrong)-filled)

	style := styles.err
	switch s {
	case shared.StrengthMedium:
		style = styles.warn
	case shared.StrengthStrong, shared.StrengthVeryStrong:
		style = styles.ok
	}
	return style.Render(fmt.Sprintf("%s %s (%d%%)", bar, s, s.Percent()))
}

// Progress renders a progress update from a long-running task.
func Progress(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.FetchLiked, tasks.FetchPlaylists, tasks.FetchHistory:
		return "📥 " + u.Message
	case tasks.ClearLiked, tasks.ExportPlaylists:
		return "   " + u.Message
	case tasks.ComputeStats:
		return "📊 " + u.Message
	default:
		return u.Message
	}
}
