package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicdash/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	backend    *Backend
	owned      bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Backend is opened from the config on first use.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Backend    *Backend
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		backend:    opts.Backend,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, accountCommand, searchCommand, playCommand, likesCommand,
		playlistsCommand, historyCommand, statsCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the config named by --config unless one was injected.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.config != nil {
		return ctx, nil
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		return ctx, nil
	}

	r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	r.config = shared.DefaultConfig()
	return ctx, nil
}

// after flushes pending history writes and closes a backend the runner opened itself.
func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	if r.backend == nil {
		return nil
	}
	if !r.owned {
		r.backend.Player.Wait()
		return nil
	}

	err := r.backend.Close()
	r.backend, r.owned = nil, false
	return err
}

// components returns the backend, opening it from the config on first use.
func (r *Runner) components(ctx context.Context) (*Backend, error) {
	if r.backend != nil {
		return r.backend, nil
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}

	b, err := OpenBackend(ctx, r.config, r.logger)
	if err != nil {
		return nil, err
	}
	r.backend, r.owned = b, true
	return b, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeLine writes s followed by a newline.
func (r *Runner) writeLine(s string) error {
	return r.writePlain("%s\n", s)
}

// writeResult prints data as JSON when --json is set and as text otherwise.
func (r *Runner) writeResult(cmd *cli.Command, data any, text func() string) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, true)
	}
	return r.writeLine(text())
}

// exitCode maps an error to a process exit status. Informational outcomes never reach here.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		return 2
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrSessionEnded):
		return 3
	default:
		return 1
	}
}
