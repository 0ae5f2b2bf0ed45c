package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/musicdash/internal/shared"
	"github.com/desertthunder/musicdash/internal/ui"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{ConfigPath: "config.toml", Logger: logger})

	if err := rootCommand(runner).Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Debug("command failed", "error", err)
		fmt.Fprintln(os.Stderr, ui.Error(err))
		os.Exit(exitCode(err))
	}
}
