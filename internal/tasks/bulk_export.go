package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/musicdash/internal/formatter"
	"github.com/desertthunder/musicdash/internal/session"
)

const (
	defaultExportWorkers = 4
	maxExportWorkers     = 8
	defaultExportRate    = 5.0
)

// BulkExportOpts contains configuration for exporting many playlists at once.
type BulkExportOpts struct {
	Format     formatter.Format // Export format: csv, markdown, text
	OutputDir  string           // Base output directory (default: musicdash_export_{epoch})
	NumWorkers int              // Concurrent writers (default: 4, max: 8)
	RateLimit  float64          // Playlist reads per second (default: 5)
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string   `json:"playlistId"`
	PlaylistName string   `json:"playlistName,omitempty"`
	Songs        int      `json:"songs"`
	Files        []string `json:"files,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Success reports whether the playlist was written.
func (r PlaylistExportResult) Success() bool {
	return r.Error == ""
}

// BulkExportResult summarizes a bulk export and is written to the manifest.
type BulkExportResult struct {
	Format            formatter.Format       `json:"format"`
	OutputDirectory   string                 `json:"outputDirectory"`
	TotalPlaylists    int                    `json:"totalPlaylists"`
	SuccessfulExports int                    `json:"successfulExports"`
	FailedExports     int                    `json:"failedExports"`
	Results           []PlaylistExportResult `json:"results"`
	ManifestPath      string                 `json:"-"`
}

type exportJob struct {
	index      int
	playlistID string
}

type exportDone struct {
	index  int
	result PlaylistExportResult
}

// BulkExport writes the given playlists, or every playlist the user owns when ids is empty, under one directory.
//
// Playlists are re-read through a rate limiter and written by a bounded worker pool. A failed playlist is
// recorded in the result and does not stop the others. Results keep the order of ids and are also written
// to export_manifest.json.
func (e *PlaylistEngine) BulkExport(
	ctx context.Context,
	sess *session.Session,
	ids []string,
	opts BulkExportOpts,
	prog chan<- ProgressUpdate,
) (*BulkExportResult, error) {
	if _, err := sess.UserID(); err != nil {
		return nil, err
	}

	format, err := formatter.ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = format

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("musicdash_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultExportWorkers
	}
	if opts.NumWorkers > maxExportWorkers {
		opts.NumWorkers = maxExportWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultExportRate
	}

	if len(ids) == 0 {
		playlists, err := e.ListPlaylists(ctx, sess)
		if err != nil {
			return nil, err
		}
		for _, p := range playlists {
			ids = append(ids, p.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		TotalPlaylists:  len(ids),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob, len(ids))
	done := make(chan exportDone, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, sess, &wg, limiter, jobs, done, opts)
	}

	for i, id := range ids {
		jobs <- exportJob{index: i, playlistID: id}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	ordered := make([]*PlaylistExportResult, len(ids))
	completed := 0
	for d := range done {
		completed++
		res := d.result
		ordered[d.index] = &res

		if res.Success() {
			result.SuccessfulExports++
			sendProgress(prog, exportedUpdate(completed, len(ids), res))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
		}
	}

	result.Results = make([]PlaylistExportResult, 0, completed)
	for _, res := range ordered {
		if res != nil {
			result.Results = append(result.Results, *res)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("bulk export finished", "dir", opts.OutputDir, "ok", result.SuccessfulExports, "failed", result.FailedExports)
	return result, nil
}

func (e *PlaylistEngine) exportWorker(
	ctx context.Context,
	sess *session.Session,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan exportJob,
	done chan<- exportDone,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		done <- exportDone{index: job.index, result: e.exportSinglePlaylist(ctx, sess, job.playlistID, opts)}
	}
}

func (e *PlaylistEngine) exportSinglePlaylist(ctx context.Context, sess *session.Session, id string, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{PlaylistID: id}

	p, err := e.GetPlaylist(ctx, sess, id)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.PlaylistName = p.Name
	result.Songs = p.SongCount()

	var target string
	switch opts.Format {
	case formatter.FormatCSV, formatter.FormatMarkdown:
		target = filepath.Join(opts.OutputDir, p.ID)
	default:
		target = filepath.Join(opts.OutputDir, p.ID+"_songs.txt")
	}

	files, err := formatter.WriteExport(p, opts.Format, target)
	if err != nil {
		result.Error = fmt.Sprintf("%s export failed: %v", opts.Format, err)
		return result
	}
	result.Files = files
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
