package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type server struct {
	cfg     config
	run     func(ctx context.Context) (channelSummary, error)
	metrics *jobMetrics

	// 同時に2つのエクスポートを走らせない
	mu sync.Mutex
}

func newServer(cfg config, run func(ctx context.Context) (channelSummary, error), metrics *jobMetrics) *echo.Echo {
	s := &server{
		cfg:     cfg,
		run:     run,
		metrics: metrics,
	}

	e := echo.New()
	e.HideBanner = true
	e.GET("/summary", s.summaryHandler)
	e.GET("/_task/export", s.exportHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})))
	return e
}

func (s *server) summaryHandler(c echo.Context) error {
	summary, err := readSummary(filepath.Join(s.cfg.FilePath, summaryFileName))
	if errors.Is(err, os.ErrNotExist) {
		return c.String(http.StatusNotFound, "not found")
	}
	if err != nil {
		logger.Error().Err(err).Msg("can't read summary")
		return c.String(http.StatusInternalServerError, "error")
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *server) exportHandler(c echo.Context) error {
	if !s.cfg.Develop && c.Request().Header.Get("X-Appengine-Cron") != "true" {
		return c.String(http.StatusBadRequest, "bad request")
	}

	if !s.mu.TryLock() {
		return c.String(http.StatusConflict, "export already running")
	}
	defer s.mu.Unlock()

	logger.Info().Msg("export task start")
	summary, err := s.run(c.Request().Context())
	if err != nil {
		logger.Error().Err(err).Msg("export task failed")
		return c.String(http.StatusInternalServerError, "error")
	}

	return c.JSON(http.StatusOK, summary)
}
