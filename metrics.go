package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"splitLines/resegment"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitlines_runs_total",
		Help: "Split runs by outcome.",
	}, []string{"outcome"})

	inputFeatures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitlines_input_features_total",
		Help: "Input features processed.",
	})

	segmentsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitlines_segments_total",
		Help: "Segments emitted by successful runs.",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitlines_run_duration_seconds",
		Help:    "Wall time of split runs.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})
)

// errorKind names the error class used for metrics labels and status codes
func errorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, resegment.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, resegment.ErrInvalidGeometryKind):
		return "invalid_geometry_kind"
	case errors.Is(err, resegment.ErrMalformedGeometry):
		return "malformed_geometry"
	case errors.Is(err, resegment.ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidCoordinate):
		return "invalid_coordinate"
	}
	return "error"
}

func observeRun(err error, took time.Duration) {
	runsTotal.WithLabelValues(errorKind(err)).Inc()
	runDuration.Observe(took.Seconds())
}
