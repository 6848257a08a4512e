package main

import (
	"context"
	"math"
	"time"

	geo "github.com/kellydunn/golang-geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"splitLines/resegment"
	"splitLines/vector"
)

var (
	// ErrInvalidInput is returned when the request body is not a usable GeoJSON FeatureCollection
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCoordinate is returned when a geographic dataset has a vertex outside lon/lat bounds
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// SplitSummary describes one finished run
type SplitSummary struct {
	RunID            string  `json:"run_id"`
	InputFeatures    int     `json:"input_features"`
	Segments         int     `json:"segments"`
	MaxSegmentLength float64 `json:"max_segment_length"`
	PlanarLength     float64 `json:"planar_length"`
	GeodesicLengthKm float64 `json:"geodesic_length_km,omitempty"`
}

// splitLines parses a GeoJSON FeatureCollection, splits every line into segments of at most maxSegmentLength
// and returns the finalized output. Nothing is returned when the run fails or ctx is cancelled.
func splitLines(ctx context.Context, logger *zap.Logger, runID string, data []byte, maxSegmentLength float64, geographic bool) (*vector.Collection, SplitSummary, error) {
	start := time.Now()
	summary := SplitSummary{RunID: runID, MaxSegmentLength: maxSegmentLength}
	logger = logger.With(zap.String("run", runID))

	out, err := func() (*vector.Collection, error) {
		in, err := vector.UnmarshalGeoJSON(data)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidInput, "%v", err)
		}
		summary.InputFeatures = in.NumFeatures()

		if geographic {
			if err := checkCoordinates(in); err != nil {
				return nil, err
			}
		}

		r := resegment.New(
			resegment.WithLogger(logger),
			resegment.WithProgress(func(done, total int) {
				inputFeatures.Inc()
			}),
		)
		return r.Run(ctx, in, maxSegmentLength)
	}()
	observeRun(err, time.Since(start))
	if err != nil {
		logger.Warn("Split vector lines failed", zap.Error(err))
		return nil, summary, err
	}

	// Sum the length of every emitted segment
	for _, f := range out.Features() {
		ls := orb.LineString(f.Points)
		summary.PlanarLength += planar.Length(ls)
		if geographic {
			for i := 1; i < len(ls); i++ {
				summary.GeodesicLengthKm += CalcDistance(ls[i-1], ls[i])
			}
		}
	}
	summary.Segments = out.NumFeatures()
	segmentsEmitted.Add(float64(summary.Segments))

	logger.Info("Split vector lines",
		zap.Int("features", summary.InputFeatures),
		zap.Int("segments", summary.Segments),
		zap.Duration("took", time.Since(start)))
	return out, summary, nil
}

// checkCoordinates rejects lon/lat datasets with vertices outside valid bounds
func checkCoordinates(in vector.Reader) error {
	for i := 0; i < in.NumFeatures(); i++ {
		f, err := in.Feature(i)
		if err != nil {
			return errors.Wrapf(ErrInvalidInput, "%v", err)
		}
		for _, p := range f.Points {
			if !isValidCoordinate(p) {
				return errors.Wrapf(ErrInvalidCoordinate, "record %d has vertex %v", f.RecordNumber, p)
			}
		}
	}
	return nil
}

// CalcDistance calculates the great circle distance between two lon/lat points in kilometers
func CalcDistance(p1, p2 orb.Point) float64 {
	wp1 := geo.NewPoint(p1.Lat(), p1.Lon())
	wp2 := geo.NewPoint(p2.Lat(), p2.Lon())

	return wp1.GreatCircleDistance(wp2)
}

// isValidCoordinate checks if a coordinate is valid
func isValidCoordinate(pos orb.Point) bool {
	lon := pos.Lon()
	lat := pos.Lat()

	// Check for NaN or infinite values
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return false
	}

	// Check coordinate bounds
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}
