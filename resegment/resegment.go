// Package resegment cuts polyline features into consecutive segments no longer than a maximum length.
package resegment

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"splitLines/vector"
)

const (
	// FieldFID holds the segment identifier
	FieldFID = "FID"
	// FieldParentFID holds the record number of the source feature
	FieldParentFID = "PARENT_FID"

	idFieldLength = 10
)

// ProgressFunc receives the number of completed input features after each one is processed
type ProgressFunc func(done, total int)

// Option configures a Resegmenter
type Option func(*Resegmenter)

// WithLogger sets the logger used for run and per-feature messages
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resegmenter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProgress registers a progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(r *Resegmenter) {
		r.progress = fn
	}
}

// Resegmenter splits line datasets. It holds no per-run state and can be shared between goroutines,
// each run owns its own output.
type Resegmenter struct {
	logger   *zap.Logger
	progress ProgressFunc
}

// New creates a Resegmenter
func New(opts ...Option) *Resegmenter {
	r := &Resegmenter{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resegment runs a default Resegmenter
func Resegment(ctx context.Context, in vector.Reader, maxSegmentLength float64) (*vector.Collection, error) {
	return New().Run(ctx, in, maxSegmentLength)
}

// OutputSchema returns FID and PARENT_FID followed by every input field
func OutputSchema(in vector.Schema) vector.Schema {
	out := make(vector.Schema, 0, len(in)+2)
	out = append(out,
		vector.Field{Name: FieldFID, Type: vector.FieldNumeric, Length: idFieldLength},
		vector.Field{Name: FieldParentFID, Type: vector.FieldNumeric, Length: idFieldLength},
	)
	return append(out, in...)
}

// Run cuts every part of every input feature into segments of at most maxSegmentLength and returns the
// finalized output dataset. On error nothing is returned; the partially built output is discarded.
// ctx is checked once per input feature.
func (r *Resegmenter) Run(ctx context.Context, in vector.Reader, maxSegmentLength float64) (*vector.Collection, error) {
	if kind := in.GeometryKind(); kind.BaseType() != vector.KindPolyLine {
		return nil, errors.Wrapf(ErrInvalidGeometryKind, "got %s", kind)
	}
	if math.IsNaN(maxSegmentLength) || math.IsInf(maxSegmentLength, 0) || maxSegmentLength <= 0 {
		return nil, errors.Wrapf(ErrInvalidParameter, "maximum segment length must be a finite positive number, got %v", maxSegmentLength)
	}

	inSchema := in.Schema()
	out := vector.NewBuilder(vector.KindPolyLine, OutputSchema(inSchema))
	out.SetProjection(in.Projection())

	numFeatures := in.NumFeatures()
	r.logger.Info("Splitting vector lines",
		zap.Int("features", numFeatures),
		zap.Float64("maxSegmentLength", maxSegmentLength))

	fid := 0
	for i := 0; i < numFeatures; i++ {
		// check to see if cancellation has been requested
		if err := ctx.Err(); err != nil {
			r.logger.Info("Operation cancelled", zap.Int("processed", i), zap.Int("features", numFeatures))
			return nil, errors.Wrapf(ErrCancelled, "after %d of %d features: %v", i, numFeatures, err)
		}

		feature, err := in.Feature(i)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedGeometry, "feature %d: %v", i, err)
		}
		if err := validate(feature, len(inSchema)); err != nil {
			return nil, errors.Wrapf(err, "record %d", feature.RecordNumber)
		}

		emitted := 0
		for part := range feature.Parts {
			segments, err := splitPart(feature.Part(part), maxSegmentLength)
			if err != nil {
				return nil, errors.Wrapf(err, "record %d part %d", feature.RecordNumber, part)
			}
			for _, seg := range segments {
				row := make([]any, 0, len(inSchema)+2)
				row = append(row, fid, feature.RecordNumber)
				row = append(row, feature.Attributes...)
				if _, err := out.AppendLine(seg, row); err != nil {
					return nil, errors.Wrapf(err, "record %d", feature.RecordNumber)
				}
				fid++
				emitted++
			}
		}
		r.logger.Debug("Split feature",
			zap.Int("record", feature.RecordNumber),
			zap.Int("parts", len(feature.Parts)),
			zap.Int("segments", emitted))

		if r.progress != nil {
			r.progress(i+1, numFeatures)
		}
	}

	result, err := out.Finalize()
	if err != nil {
		return nil, err
	}
	r.logger.Info("Split vector lines complete",
		zap.Int("features", numFeatures),
		zap.Int("segments", result.NumFeatures()))
	return result, nil
}

// validate checks that the parts array describes ascending, in-bounds parts and that the row fits the schema
func validate(f vector.Feature, numFields int) error {
	if len(f.Parts) == 0 {
		return errors.Wrap(ErrMalformedGeometry, "missing parts array")
	}
	prev := -1
	for i, start := range f.Parts {
		if start < 0 || start >= len(f.Points) {
			return errors.Wrapf(ErrMalformedGeometry, "part %d starts at %d, outside %d vertices", i, start, len(f.Points))
		}
		if start <= prev {
			return errors.Wrapf(ErrMalformedGeometry, "part %d starts at %d, not after part %d at %d", i, start, i-1, prev)
		}
		prev = start
	}
	if len(f.Attributes) != numFields {
		return errors.Wrapf(ErrMalformedGeometry, "attribute row has %d values for %d fields", len(f.Attributes), numFields)
	}
	return nil
}

// edgeLength is the Euclidean distance between two vertices. Hypot avoids overflowing the squares.
func edgeLength(p1, p2 orb.Point) float64 {
	return math.Hypot(p2[0]-p1[0], p2[1]-p1[1])
}

// splitPart walks one vertex chain and returns its segments in emission order.
// A cut vertex ends the current segment and starts the next one.
func splitPart(part orb.LineString, maxSegmentLength float64) ([]orb.LineString, error) {
	if len(part) < 2 {
		return nil, nil
	}

	var segments []orb.LineString
	current := orb.LineString{part[0]}
	dist := 0.0
	for i := 1; i < len(part); i++ {
		p1, p2 := part[i-1], part[i]
		d := edgeLength(p1, p2)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, errors.Wrapf(ErrMalformedGeometry, "edge %v -> %v has no finite length", p1, p2)
		}
		if dist+d < maxSegmentLength {
			current = append(current, p2)
			dist += d
			continue
		}

		ratio := (dist + d - maxSegmentLength) / d
		cut := orb.Point{
			p1[0] + ratio*(p2[0]-p1[0]),
			p1[1] + ratio*(p2[1]-p1[1]),
		}
		current = append(current, cut)
		segments = append(segments, current)

		// reinitialize
		current = orb.LineString{cut, p2}
		dist = 0
	}

	if len(current) > 1 {
		segments = append(segments, current)
	}
	return segments, nil
}
