// Package main is the entry point for the media-sync application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/media-sync/internal/api"
	"github.com/joe/media-sync/internal/config"
	"github.com/joe/media-sync/internal/lock"
	"github.com/joe/media-sync/internal/log"
	"github.com/joe/media-sync/internal/syncengine"
	"github.com/joe/media-sync/internal/tui"
	"github.com/joe/media-sync/internal/watermark"
	apperrors "github.com/joe/media-sync/pkg/errors"
	"github.com/joe/media-sync/pkg/filesystem"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// The interface needs a terminal; without one fall back to a plain run
	if !cfg.Headless && !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.Headless = true
	}

	logOut, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Setup(cfg.LogLevel, logOut)
	logger := log.WithRun(uuid.NewString())

	pidLock, err := lock.AcquirePIDLock(lock.PathFor(cfg.WatermarksPath))
	if err != nil {
		return err
	}

	defer func() {
		if err := pidLock.Release(); err != nil {
			logger.Warn("failed to release lock", "error", err)
		}
	}()

	store, err := watermark.Open(ctx, cfg.WatermarksPath, cfg.StoreFormat)
	if err != nil {
		return fmt.Errorf("open control file: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close control file", "error", err)
		}
	}()

	fs := filesystem.NewRealFileSystem()
	orch := syncengine.NewOrchestrator(cfg.SourcePath, cfg.DestPath, store, fs, fs)
	orch.Planner.Discover = cfg.Discover
	orch.Logger = logger.With(slog.String("component", "orchestrator"))

	logger.Info("starting",
		"source", cfg.SourcePath,
		"dest", cfg.DestPath,
		"watermarks", store.Location(),
		"headless", cfg.Headless)

	stopAPI := startAPI(ctx, cfg, orch, logger)
	defer stopAPI()

	if cfg.Headless {
		return runHeadless(ctx, cfg, orch, logger)
	}

	return tui.Run(ctx, orch, cfg.Poll)
}

// startAPI serves the control API in the background. The returned func
// shuts it down and waits for it to stop.
func startAPI(ctx context.Context, cfg *config.Config, orch *syncengine.Orchestrator, logger *slog.Logger) func() {
	if cfg.Listen == "" {
		return func() {}
	}

	apiCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	server := api.New(api.Config{Listen: cfg.Listen}, orch, logger.With(slog.String("component", "api")))

	go func() {
		defer close(done)

		err := server.Start(apiCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("API server stopped", "error", err)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func runHeadless(ctx context.Context, cfg *config.Config, orch *syncengine.Orchestrator, logger *slog.Logger) error {
	runner := syncengine.NewRunner(orch)
	runner.Interval = cfg.Poll
	runner.Logger = logger.With(slog.String("component", "runner"))

	summary, err := runner.Run(ctx)

	fmt.Fprintf(os.Stdout, "Copied %d of %d file(s).\n", summary.Completed, summary.Planned)

	enricher := apperrors.NewEnricher()

	for _, failure := range summary.Failures {
		fmt.Fprintf(os.Stdout, "Not copied: %s: %v\n", failure.Item.RelativePath, failure.Err)

		dst := filepath.Join(cfg.DestPath, filepath.FromSlash(failure.Item.RelativePath))
		if suggestions := apperrors.FormatSuggestions(enricher.Enrich(failure.Err, dst)); suggestions != "" {
			fmt.Fprintln(os.Stdout, suggestions)
		}
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// openLog returns the log destination. The interface owns the terminal, so
// it logs to a file.
func openLog(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.LogFile == "" {
		return os.Stderr, func() {}, nil
	}

	err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o750) //nolint:mnd // user-only log directory
	if err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	//nolint:mnd // user-only log file
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	return file, func() { _ = file.Close() }, nil
}
