package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/spf13/pflag"
)

// needsYtdlp dry-runではダウンロードしないのでyt-dlpを入れない
func needsYtdlp(cfg config) bool {
	return !cfg.DryRun && (cfg.Backend == backendYtdlp || cfg.Backend == "")
}

func setupJob(ctx context.Context, cfg config) (*job, func(), error) {
	cleanup := func() {}

	if err := os.MkdirAll(cfg.FilePath, 0o755); err != nil {
		return nil, cleanup, err
	}

	archive, err := loadArchive(filepath.Join(cfg.FilePath, archiveFileName))
	if err != nil {
		return nil, cleanup, err
	}

	if needsYtdlp(cfg) {
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			return nil, cleanup, err
		}
	}

	dl, err := newDownloader(cfg, archive)
	if err != nil {
		return nil, cleanup, err
	}

	service, err := createYoutubeService(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}

	metrics := newJobMetrics()
	j := newJob(cfg, newYoutubeAPI(service, cfg.RequestsPerSecond, metrics), dl, archive)
	j.metrics = metrics

	if cfg.FirestoreProject != "" {
		client, err := createFirestoreClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, cleanup, err
		}
		j.exporter = newFirestoreExporter(client)
		cleanup = func() { client.Close() }
	}

	return j, cleanup, nil
}

func serve(ctx context.Context, cfg config, j *job) error {
	e := newServer(cfg, j.run, j.metrics)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		e.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("port", cfg.Port).Msg("server start")
	if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func run() int {
	initLogger("info", os.Stderr)

	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		logger.Error().Err(err).Msg("invalid arguments")
		return 1
	}
	initLogger(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, cleanup, err := setupJob(ctx, cfg)
	defer cleanup()
	if err != nil {
		logger.Error().Err(err).Msg("can't set up")
		return 1
	}

	if cfg.Serve {
		if err := serve(ctx, cfg, j); err != nil {
			logger.Error().Err(err).Msg("server failed")
			return 1
		}
		return 0
	}

	if _, err := j.run(ctx); err != nil {
		logger.Error().Err(err).Msg("can't export videos")
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
