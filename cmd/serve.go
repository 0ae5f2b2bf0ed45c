package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicdash/internal/server"
	"github.com/desertthunder/musicdash/internal/services"
	"github.com/desertthunder/musicdash/internal/shared"
)

// Serve runs the JSON API until interrupted.
//
// Only the local backend can be served: every request needs its own auth gateway, and the remote
// account client holds one user's token.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	b, err := r.components(ctx)
	if err != nil {
		return err
	}
	if b.Kind != shared.BackendLocal {
		return fmt.Errorf("%w: serve requires backend.kind = %q", shared.ErrInvalidConfig, shared.BackendLocal)
	}

	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	api := server.NewAPI(server.Deps{
		NewAuth:   b.NewAuth,
		Playlists: b.Playlists,
		Likes:     b.Likes,
		History:   b.History,
		Player:    b.Player,
		Dashboard: b.Dashboard,
		Search:    services.NewSimulatedSearch(),
	}, logger)

	router := api.NewRouter()
	for _, route := range router.Routes() {
		logger.Debug("route", "pattern", route)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Addr(), router, logger).ListenAndServe(ctx)
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the dashboard JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (defaults to server.host)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (defaults to server.port)"},
		},
		Action: r.Serve,
	}
}
