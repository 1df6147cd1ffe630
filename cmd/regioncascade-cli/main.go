package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/goliatone/go-regioncascade/internal/config"
	"github.com/goliatone/go-regioncascade/internal/logger"
	"github.com/goliatone/go-regioncascade/pkg/cascade"
	"github.com/goliatone/go-regioncascade/pkg/renderers/tui"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment")
	initial := flag.String("initial", "", "saved selection to restore (id, id list or hidden-field JSON)")
	output := flag.String("output", "", "write the selection JSON to this file (stdout if empty)")
	flag.Parse()

	if err := config.LoadEnvFiles(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	l := logger.SetupWith(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	value, err := run(ctx, cfg, *initial, l, tui.New(tui.WithOutput(os.Stderr)))
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(os.Stderr, "aborted")
		os.Exit(130)
	}
	if err != nil {
		l.Error("picker_error", "err", err)
		os.Exit(1)
	}

	if err := writeOutput(*output, value); err != nil {
		l.Error("output_error", "err", err)
		os.Exit(1)
	}
}

type picker interface {
	Run(ctx context.Context, chain tui.Chain) (string, error)
}

func run(ctx context.Context, cfg config.Config, initial string, l *slog.Logger, p picker) (string, error) {
	source, err := cfg.Source(ctx, l)
	if err != nil {
		return "", err
	}
	roots, err := source.Children(ctx, cfg.Cascade.RootParentID)
	if err != nil {
		return "", fmt.Errorf("load roots: %w", err)
	}

	ctrl, err := cascade.New(source, cfg.ControllerOptions(l)...)
	if err != nil {
		return "", err
	}
	if err := ctrl.Initialize(ctx, roots, initial); err != nil {
		var fetchErr *cascade.FetchError
		if !errors.As(err, &fetchErr) {
			return "", err
		}
	}
	return p.Run(ctx, ctrl)
}

func writeOutput(path, value string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err := fmt.Fprintln(w, value)
	return err
}
