package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/vk/chiplettrace/internal/ctxlog"
	"github.com/vk/chiplettrace/internal/placement"
)

// ErrDeadlock is returned by Run in strict mode when the trace cannot be
// drained.
var ErrDeadlock = errors.New("trace contains a deadlock")

// Loader reads a placement tree from the given paths.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*placement.Tree, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logW   io.Writer
	logger *slog.Logger
	loader Loader
	config *Config
}

// NewApp is the constructor for the main application. Reports go to outW
// unless the config names an output file; logs and deadlock diagnostics go
// to logW.
func NewApp(outW, logW io.Writer, cfg *Config, loader Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logW:   logW,
		logger: logger,
		loader: loader,
		config: cfg,
	}
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
