package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/ganbootstrap/internal/app"
	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/vk/ganbootstrap/internal/cli"
	"github.com/vk/ganbootstrap/internal/hcl_adapter"
)

// main is the entrypoint for the ganbootstrap application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()

	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Component factories may panic on shapes they cannot build; report it
	// as an ordinary failure.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	loader := hcl_adapter.NewLoader()
	ganApp := app.NewApp(outW, appConfig, loader)

	if _, err := ganApp.Run(ctx); err != nil {
		if cfgerr.IsConfigError(err) || errors.Is(err, app.ErrNoEngine) {
			return &cli.ExitError{Code: 2, Message: err.Error()}
		}
		return err
	}
	return nil
}
