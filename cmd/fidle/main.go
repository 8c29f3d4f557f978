package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chris-collard/fidle/internal/app"
	"github.com/chris-collard/fidle/internal/cli"
)

// main is the entrypoint for the fidle pipeline binary.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Critical startup errors surface as panics; recover so the user gets a
	// clean message instead of a stack trace.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("a critical startup error occurred: %v", r)
		}
	}()

	fidleApp := app.NewApp(outW, appConfig, nil)
	return fidleApp.Run(ctx)
}
