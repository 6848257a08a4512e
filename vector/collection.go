package vector

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// ErrFinalized is returned when appending to a builder that has already been finalized
var ErrFinalized = errors.New("vector: collection already finalized")

// ErrRowLength is returned when an attribute row does not match the schema width
var ErrRowLength = errors.New("vector: attribute row does not match schema")

// Collection is an immutable in-memory dataset
type Collection struct {
	kind       GeometryKind
	schema     Schema
	features   []Feature
	projection string
}

// NewCollection builds a collection from already assembled features. Record numbers are kept as given.
// The features are copied; later changes to the caller's slices do not reach the collection.
func NewCollection(kind GeometryKind, schema Schema, features []Feature) *Collection {
	owned := make([]Feature, len(features))
	for i, f := range features {
		owned[i] = f.Clone()
	}
	return &Collection{
		kind:     kind,
		schema:   schema.Clone(),
		features: owned,
	}
}

// WithProjection returns a copy of c carrying the given projection string
func (c *Collection) WithProjection(projection string) *Collection {
	out := *c
	out.projection = projection
	return &out
}

func (c *Collection) GeometryKind() GeometryKind { return c.kind }

func (c *Collection) Schema() Schema { return c.schema.Clone() }

func (c *Collection) NumFeatures() int { return len(c.features) }

func (c *Collection) Projection() string { return c.projection }

// Feature returns a copy of the record at index i
func (c *Collection) Feature(i int) (Feature, error) {
	if i < 0 || i >= len(c.features) {
		return Feature{}, errors.Errorf("vector: feature index %d out of range [0, %d)", i, len(c.features))
	}
	return c.features[i].Clone(), nil
}

// Features returns a copy of every record in order
func (c *Collection) Features() []Feature {
	out := make([]Feature, len(c.features))
	for i, f := range c.features {
		out[i] = f.Clone()
	}
	return out
}

// Builder is the append-only side of a dataset. Nothing is visible to readers until Finalize.
type Builder struct {
	kind       GeometryKind
	schema     Schema
	projection string
	features   []Feature
	done       bool
}

// NewBuilder creates an empty output dataset with a fixed kind and schema
func NewBuilder(kind GeometryKind, schema Schema) *Builder {
	return &Builder{kind: kind, schema: schema.Clone()}
}

// SetProjection sets the projection string written with the dataset
func (b *Builder) SetProjection(projection string) {
	b.projection = projection
}

// Schema returns the fixed output schema
func (b *Builder) Schema() Schema { return b.schema.Clone() }

// Len returns the number of records appended so far
func (b *Builder) Len() int { return len(b.features) }

// AppendLine appends a single-part line record and returns its record number
func (b *Builder) AppendLine(line orb.LineString, row []any) (int, error) {
	if b.done {
		return 0, ErrFinalized
	}
	if len(row) != len(b.schema) {
		return 0, errors.Wrapf(ErrRowLength, "got %d values for %d fields", len(row), len(b.schema))
	}

	rec := Feature{
		RecordNumber: len(b.features) + 1,
		Points:       append([]orb.Point(nil), line...),
		Parts:        []int{0},
		Attributes:   append([]any(nil), row...),
	}
	b.features = append(b.features, rec)
	return rec.RecordNumber, nil
}

// Finalize freezes the builder and hands out the collection. It can only be called once.
func (b *Builder) Finalize() (*Collection, error) {
	if b.done {
		return nil, ErrFinalized
	}
	b.done = true

	c := &Collection{
		kind:       b.kind,
		schema:     b.schema,
		features:   b.features,
		projection: b.projection,
	}
	b.features = nil
	return c, nil
}
