package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicdash/internal/formatter"
	"github.com/desertthunder/musicdash/internal/shared"
	"github.com/desertthunder/musicdash/internal/tasks"
	"github.com/desertthunder/musicdash/internal/ui"
)

func playlistArg(cmd *cli.Command) (string, error) {
	id := cmd.StringArg("playlist")
	if id == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	return id, nil
}

// ListPlaylists prints the user's playlists.
func (r *Runner) ListPlaylists(ctx context.Context, cmd *cli.Command) error {
	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	playlists, err := b.Playlists.ListPlaylists(ctx, sess)
	if err != nil {
		return err
	}
	return r.writeResult(cmd, playlists, func() string { return ui.Title("Playlists") + "\n" + ui.Playlists(playlists) })
}

// ShowPlaylist prints one playlist and its songs.
func (r *Runner) ShowPlaylist(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}

	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	p, err := b.Playlists.GetPlaylist(ctx, sess, id)
	if err != nil {
		return err
	}
	return r.writeResult(cmd, p, func() string { return ui.Playlist(p) })
}

// CreatePlaylist creates an empty playlist.
func (r *Runner) CreatePlaylist(ctx context.Context, cmd *cli.Command) error {
	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	p, err := b.Playlists.CreatePlaylist(ctx, sess, tasks.PlaylistInput{
		Name:        cmd.StringArg("name"),
		Description: cmd.String("description"),
	})
	if err != nil {
		return err
	}
	return r.writeResult(cmd, p, func() string { return ui.Success(fmt.Sprintf("Created playlist %s [%s]", p.Name, p.ID)) })
}

// UpdatePlaylist changes a playlist's name and description. Unset flags keep their values.
func (r *Runner) UpdatePlaylist(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}

	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	current, err := b.Playlists.GetPlaylist(ctx, sess, id)
	if err != nil {
		return err
	}

	in := tasks.PlaylistInput{Name: current.Name, Description: current.Description}
	if cmd.IsSet("name") {
		in.Name = cmd.String("name")
	}
	if cmd.IsSet("description") {
		in.Description = cmd.String("description")
	}

	p, err := b.Playlists.UpdatePlaylist(ctx, sess, id, in)
	if err != nil {
		return err
	}
	return r.writeLine(ui.Success(fmt.Sprintf("Updated playlist %s", p.Name)))
}

// DeletePlaylist deletes a playlist.
func (r *Runner) DeletePlaylist(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}

	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	if err := b.Playlists.DeletePlaylist(ctx, sess, id); err != nil {
		return err
	}
	return r.writeLine(ui.Success("Playlist deleted"))
}

// AddToPlaylist adds a song. A song already present is reported, not treated as an error.
func (r *Runner) AddToPlaylist(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}

	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	song, err := r.songFromFlags(ctx, cmd, b, sess)
	if err != nil {
		return err
	}

	outcome, err := b.Playlists.AddSong(ctx, sess, id, song)
	if err != nil {
		return err
	}
	return r.writeLine(ui.Outcome(outcome))
}

// RemoveFromPlaylist removes one song.
func (r *Runner) RemoveFromPlaylist(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	songID := cmd.StringArg("song")
	if songID == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	outcome, err := b.Playlists.RemoveSong(ctx, sess, id, songID)
	if err != nil {
		return err
	}
	return r.writeLine(ui.Outcome(outcome))
}

// RemoveSelected removes every listed song in one write through a [tasks.PlaylistView].
func (r *Runner) RemoveSelected(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	songIDs := cmd.StringArgs("songs")

	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	view := tasks.NewPlaylistView(b.Playlists, sess)
	defer view.Close()
	if _, err := view.Open(ctx, id); err != nil {
		return err
	}
	for _, songID := range songIDs {
		if err := view.Toggle(songID, true); err != nil {
			return err
		}
	}

	removed, err := view.RemoveSelected(ctx)
	if err != nil {
		return err
	}

	if removed == 0 {
		return r.writeLine(ui.Info("Nothing to remove"))
	}
	return r.writeLine(ui.Success(fmt.Sprintf("Removed %d songs, %d left", removed, len(view.Songs()))))
}

// ExportPlaylist prints a playlist in the chosen format or writes it under --output.
func (r *Runner) ExportPlaylist(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	p, err := b.Playlists.GetPlaylist(ctx, sess, id)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		data, err := formatter.Export(p, format)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	files, err := formatter.WriteExport(p, format, output)
	if err != nil {
		return err
	}
	r.logger.Info("playlist exported", "playlist", p.ID, "format", format, "files", len(files))
	return r.writeLine(ui.Success("Exported to " + strings.Join(files, ", ")))
}

// ExportAllPlaylists writes every named playlist, or all of them, under one directory with a manifest.
func (r *Runner) ExportAllPlaylists(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.Remote.RequestsPerSecond,
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writeLine(ui.Progress(update))
		}
	}()

	result, err := b.Playlists.BulkExport(ctx, sess, cmd.StringArgs("playlists"), opts, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	summary := fmt.Sprintf("Exported %d of %d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	if result.FailedExports > 0 {
		return r.writeLine(ui.Warn(summary))
	}
	return r.writeLine(ui.Success(summary))
}

// playlistsCommand handles playlist operations
func playlistsCommand(r *Runner) *cli.Command {
	playlist := func() cli.Argument { return &cli.StringArg{Name: "playlist"} }

	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Create, edit & fill playlists",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List your playlists",
				Flags:   []cli.Flag{jsonFlag()},
				Action:  r.ListPlaylists,
			},
			{
				Name:      "show",
				Usage:     "Show a playlist and its songs",
				Arguments: []cli.Argument{playlist()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ShowPlaylist,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Playlist description"},
					jsonFlag(),
				},
				Action: r.CreatePlaylist,
			},
			{
				Name:      "update",
				Aliases:   []string{"edit"},
				Usage:     "Rename a playlist or change its description",
				Arguments: []cli.Argument{playlist()},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
				},
				Action: r.UpdatePlaylist,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist",
				Arguments: []cli.Argument{playlist()},
				Action:    r.DeletePlaylist,
			},
			{
				Name:      "add",
				Usage:     "Add a song to a playlist",
				Arguments: []cli.Argument{playlist()},
				Flags:     songFlags(),
				Action:    r.AddToPlaylist,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a song from a playlist",
				Arguments: []cli.Argument{playlist(), &cli.StringArg{Name: "song"}},
				Action:    r.RemoveFromPlaylist,
			},
			{
				Name:  "remove-selected",
				Usage: "Remove several songs from a playlist at once",
				Arguments: []cli.Argument{
					playlist(),
					&cli.StringArgs{Name: "songs", Min: 0, Max: -1},
				},
				Action: r.RemoveSelected,
			},
			{
				Name:      "export",
				Usage:     "Export a playlist as CSV, Markdown or text",
				Arguments: []cli.Argument{playlist()},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, markdown or text", Value: "text"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write files under this path instead of printing"},
				},
				Action: r.ExportPlaylist,
			},
			{
				Name:  "export-all",
				Usage: "Export many playlists at once, all of them when none are named",
				Arguments: []cli.Argument{
					&cli.StringArgs{Name: "playlists", Min: 0, Max: -1},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, markdown or text", Value: "text"},
					&cli.StringFlag{Name: "dir", Usage: "Output directory (default: musicdash_export_<epoch>)"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent writers", Value: 4},
				},
				Action: r.ExportAllPlaylists,
			},
		},
	}
}
