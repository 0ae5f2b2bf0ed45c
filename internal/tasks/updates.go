package tasks

import (
	"fmt"

	"github.com/desertthunder/musicdash/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or server layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchLiked Phase = iota
	ClearLiked
	FetchPlaylists
	FetchHistory
	ComputeStats
	ExportPlaylists
)

func (p Phase) String() string {
	switch p {
	case FetchLiked:
		return "fetch_liked"
	case ClearLiked:
		return "clear_liked"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchHistory:
		return "fetch_history"
	case ComputeStats:
		return "compute_stats"
	case ExportPlaylists:
		return "export_playlists"
	default:
		return ""
	}
}

// sendProgress delivers u without blocking; updates are dropped when nobody is reading.
func sendProgress(progress chan<- ProgressUpdate, u ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- u:
	default:
	}
}

func fetchLikedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLiked,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Found %d liked songs", total),
	}
}

func clearLikedUpdate(step, total int, liked *models.LikedSong) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClearLiked,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Removed: %s - %s", step, total, liked.Song().DisplayArtist(), liked.Song().DisplayTitle()),
		Data:    liked,
	}
}

func clearFailedUpdate(step, total int, liked *models.LikedSong, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClearLiked,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, liked.Song().DisplayTitle(), err),
		Data:    liked,
	}
}

func statsUpdate(phase Phase, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d %s", count, phaseNoun(phase)),
	}
}

func exportedUpdate(step, total int, res PlaylistExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exported %s (%d songs, %d files)", step, total, res.PlaylistName, res.Songs, len(res.Files)),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res PlaylistExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, res.PlaylistID, res.Error),
		Data:    res,
	}
}

func phaseNoun(p Phase) string {
	switch p {
	case FetchLiked:
		return "liked songs"
	case FetchPlaylists:
		return "playlists"
	case FetchHistory:
		return "history entries"
	default:
		return "records"
	}
}
