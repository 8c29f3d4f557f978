// Package app wires the configuration, logger and notebook executor together
// and dispatches the five pipeline commands.
package app

import (
	"io"
	"log/slog"

	"github.com/chris-collard/fidle/internal/notebook"
)

// App encapsulates the application's dependencies, configuration and
// lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	exec   notebook.Executor
}

// NewApp is the constructor for the main application. The notebook executor
// is injectable so tests run without a jupyter installation; nil selects the
// real one.
func NewApp(outW io.Writer, config *Config, exec notebook.Executor) *App {
	if exec == nil {
		exec = &notebook.JupyterExecutor{}
	}
	return &App{
		outW:   outW,
		logger: newLogger(config.LogLevel, config.LogFormat, outW),
		config: config,
		exec:   exec,
	}
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
