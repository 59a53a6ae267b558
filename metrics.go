package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

type jobMetrics struct {
	registry      *prometheus.Registry
	apiRequests   *prometheus.CounterVec
	videosFound   prometheus.Counter
	downloads     *prometheus.CounterVec
	videoDuration prometheus.Histogram
}

func newJobMetrics() *jobMetrics {
	m := &jobMetrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccvids_api_requests_total",
				Help: "YouTube Data API requests, by method and result.",
			},
			[]string{"method", "result"},
		),
		videosFound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ccvids_videos_found_total",
				Help: "Creative Commons videos found.",
			},
		),
		downloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccvids_downloads_total",
				Help: "Download attempts, by result (ok, failed, archived, dry_run).",
			},
			[]string{"result"},
		),
		videoDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ccvids_video_duration_seconds",
				Help:    "Length of processed videos.",
				Buckets: []float64{30, 60, 300, 600, 1800, 3600, 7200},
			},
		),
	}

	m.registry.MustRegister(m.apiRequests, m.videosFound, m.downloads, m.videoDuration)
	return m
}
