package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/services"
	"github.com/desertthunder/musicdash/internal/session"
	"github.com/desertthunder/musicdash/internal/shared"
	"github.com/desertthunder/musicdash/internal/tasks"
	"github.com/desertthunder/musicdash/internal/ui"
)

// songFlags describe a song either directly or as the nth result of a search.
func songFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "Song ID"},
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Song title"},
		&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Song artist"},
		&cli.StringFlag{Name: "source", Usage: "Where the song comes from", Value: "YouTube"},
		&cli.StringFlag{Name: "url", Usage: "Song URL"},
		&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search and pick a result instead of describing the song"},
		&cli.IntFlag{Name: "pick", Usage: "Which search result to use with --query", Value: 1},
	}
}

// songFromFlags builds the song named by [songFlags].
func (r *Runner) songFromFlags(ctx context.Context, cmd *cli.Command, b *Backend, sess *session.Session) (models.Song, error) {
	if query := cmd.String("query"); query != "" {
		provider, err := b.SearchProvider(ctx, sess)
		if err != nil {
			return models.Song{}, err
		}

		results, err := provider.Search(ctx, query)
		if err != nil {
			return models.Song{}, err
		}

		pick := cmd.Int("pick")
		if pick < 1 || pick > len(results) {
			return models.Song{}, shared.Invalid("pick", "pick must be between 1 and %d", len(results))
		}
		return results[pick-1], nil
	}

	song := models.Song{
		ID:     cmd.String("id"),
		Title:  cmd.String("title"),
		Artist: cmd.String("artist"),
		Source: cmd.String("source"),
		URL:    cmd.String("url"),
	}
	if song.ID == "" {
		return models.Song{}, shared.Invalid("id", "song id is required (or use --query)")
	}
	return song, nil
}

// Search prints results from the configured provider.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")

	b, err := r.components(ctx)
	if err != nil {
		return err
	}

	var sess *session.Session
	if b.search.Provider == "index" {
		if _, _, sess, err = r.resume(ctx); err != nil {
			return err
		}
	}

	provider, err := b.SearchProvider(ctx, sess)
	if err != nil {
		return err
	}

	songs, err := provider.Search(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("open") && query != "" {
		if err := shared.OpenBrowser(services.SearchURL(query)); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return r.writeResult(cmd, songs, func() string {
		if query == "" {
			return ui.Help("Type something to search")
		}
		return ui.Title(fmt.Sprintf("Results for %q", query)) + "\n" + ui.Songs(songs)
	})
}

// Play prints the now-playing notice and records the play.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	song, err := r.songFromFlags(ctx, cmd, b, sess)
	if err != nil {
		return err
	}

	np := b.Player.Play(ctx, sess, song)
	if cmd.Bool("open") && song.URL != "" {
		if err := shared.OpenBrowser(song.URL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return r.writeResult(cmd, np, func() string { return ui.Success(np.Message) })
}

// ListLikes prints liked songs, newest first.
func (r *Runner) ListLikes(ctx context.Context, cmd *cli.Command) error {
	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	liked, err := b.Likes.List(ctx, sess)
	if err != nil {
		return err
	}
	return r.writeResult(cmd, liked, func() string { return ui.Title("Liked songs") + "\n" + ui.LikedSongs(liked) })
}

// Like likes a song.
func (r *Runner) Like(ctx context.Context, cmd *cli.Command) error {
	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	song, err := r.songFromFlags(ctx, cmd, b, sess)
	if err != nil {
		return err
	}

	outcome, _, err := b.Likes.Like(ctx, sess, song)
	if err != nil {
		return err
	}
	return r.writeLine(ui.Outcome(outcome))
}

// Unlike removes a liked-song record by its record id.
func (r *Runner) Unlike(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: liked song id", shared.ErrMissingArgument)
	}

	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	outcome, err := b.Likes.Unlike(ctx, sess, id)
	if err != nil {
		return err
	}
	return r.writeLine(ui.Outcome(outcome))
}

// ClearLikes deletes every liked song, reporting each deletion as it happens.
func (r *Runner) ClearLikes(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to remove all liked songs", shared.ErrMissingArgument)
	}

	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writeLine(ui.Progress(update))
		}
	}()

	result, err := b.Likes.ClearAll(ctx, sess, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		if result.Total > 0 {
			r.writeLine(ui.Warn(fmt.Sprintf("Removed %d of %d liked songs, %d remain", result.Deleted, result.Total, result.Remaining())))
		}
		return err
	}
	return r.writeLine(ui.Success(fmt.Sprintf("Removed %d liked songs", result.Deleted)))
}

// History prints recent plays.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	limit := cmd.Int("limit")
	if cmd.Bool("all") {
		limit = 0
	}

	entries, err := b.History.Recent(ctx, sess, limit)
	if err != nil {
		return err
	}
	return r.writeResult(cmd, entries, func() string { return ui.Title("Recently played") + "\n" + ui.History(entries) })
}

// Stats prints the dashboard numbers.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	b, _, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	var progressCh chan tasks.ProgressUpdate
	done := make(chan struct{})
	if cmd.Bool("verbose") {
		progressCh = make(chan tasks.ProgressUpdate, 10)
		go func() {
			defer close(done)
			for update := range progressCh {
				r.logger.Debug(update.Message, "phase", update.Phase)
			}
		}()
	} else {
		close(done)
	}

	stats, err := b.Dashboard.Stats(ctx, sess, progressCh)
	if progressCh != nil {
		close(progressCh)
	}
	<-done
	if err != nil {
		return err
	}
	return r.writeResult(cmd, stats, func() string { return ui.Stats(stats) })
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func openFlag(usage string) cli.Flag {
	return &cli.BoolFlag{Name: "open", Aliases: []string{"o"}, Usage: usage}
}

// searchCommand searches for songs
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search for songs",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags:     []cli.Flag{jsonFlag(), openFlag("Open the YouTube results page")},
		Action:    r.Search,
	}
}

// playCommand plays a song and records it in history
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "play",
		Usage:  "Play a song",
		Flags:  append(songFlags(), jsonFlag(), openFlag("Open the song in a browser")),
		Action: r.Play,
	}
}

// likesCommand handles liked-song operations
func likesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "likes",
		Aliases: []string{"liked"},
		Usage:   "Liked songs",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List liked songs",
				Flags:   []cli.Flag{jsonFlag()},
				Action:  r.ListLikes,
			},
			{
				Name:   "add",
				Usage:  "Like a song",
				Flags:  songFlags(),
				Action: r.Like,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Unlike a song by its liked-song id",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.Unlike,
			},
			{
				Name:   "clear",
				Usage:  "Remove every liked song",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "yes", Usage: "Confirm removal"}},
				Action: r.ClearLikes,
			},
		},
	}
}

// historyCommand lists recent plays
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recently played songs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of entries", Value: tasks.RecentHistoryLimit},
			&cli.BoolFlag{Name: "all", Usage: "Show the whole history"},
			jsonFlag(),
		},
		Action: r.History,
	}
}

// statsCommand shows the dashboard summary
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show dashboard statistics",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Stats,
	}
}
