package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/chiplettrace/internal/app"
	"github.com/vk/chiplettrace/internal/cli"
	"github.com/vk/chiplettrace/internal/placement/hclload"
)

// main is the entrypoint for the chiplettrace application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. The report goes to outW, logs and diagnostics to errW.
func run(outW, errW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	traceApp := app.NewApp(outW, errW, appConfig, hclload.NewLoader())
	err = traceApp.Run(context.Background())
	if errors.Is(err, app.ErrDeadlock) {
		return &cli.ExitError{Code: 3, Message: err.Error()}
	}
	return err
}
