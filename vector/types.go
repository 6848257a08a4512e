// Package vector holds in-memory line datasets: geometry, attribute schema and rows.
package vector

import (
	"fmt"

	"github.com/paulmach/orb"
)

// GeometryKind is the declared shape type of a dataset
type GeometryKind int

const (
	KindNull GeometryKind = iota
	KindPoint
	KindPolyLine
	KindPolygon
	KindMultiPoint
	KindPointZ
	KindPolyLineZ
	KindPolygonZ
	KindMultiPointZ
	KindPointM
	KindPolyLineM
	KindPolygonM
	KindMultiPointM
)

var kindNames = map[GeometryKind]string{
	KindNull:        "Null",
	KindPoint:       "Point",
	KindPolyLine:    "PolyLine",
	KindPolygon:     "Polygon",
	KindMultiPoint:  "MultiPoint",
	KindPointZ:      "PointZ",
	KindPolyLineZ:   "PolyLineZ",
	KindPolygonZ:    "PolygonZ",
	KindMultiPointZ: "MultiPointZ",
	KindPointM:      "PointM",
	KindPolyLineM:   "PolyLineM",
	KindPolygonM:    "PolygonM",
	KindMultiPointM: "MultiPointM",
}

func (k GeometryKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("GeometryKind(%d)", int(k))
}

// BaseType strips the Z and M variants, so PolyLineZ and PolyLineM both report PolyLine
func (k GeometryKind) BaseType() GeometryKind {
	switch k {
	case KindPointZ, KindPointM:
		return KindPoint
	case KindPolyLineZ, KindPolyLineM:
		return KindPolyLine
	case KindPolygonZ, KindPolygonM:
		return KindPolygon
	case KindMultiPointZ, KindMultiPointM:
		return KindMultiPoint
	}
	return k
}

// FieldType is the attribute column type
type FieldType int

const (
	FieldCharacter FieldType = iota
	FieldNumeric
	FieldLogical
	FieldDate
)

func (t FieldType) String() string {
	switch t {
	case FieldCharacter:
		return "Character"
	case FieldNumeric:
		return "Numeric"
	case FieldLogical:
		return "Logical"
	case FieldDate:
		return "Date"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// Field describes one attribute column
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Length   int       `json:"length"`
	Decimals int       `json:"decimals"`
}

// Schema is an ordered list of fields. Fields are identified by position, names may repeat.
type Schema []Field

// Clone returns a copy that shares nothing with s
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	copy(out, s)
	return out
}

// Names returns the field names in column order
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Feature is one record of a dataset: geometry plus its attribute row
type Feature struct {
	// RecordNumber is 1-based and stable within the dataset
	RecordNumber int
	Points       []orb.Point
	// Parts holds the start offset of every part in Points
	Parts      []int
	Attributes []any
}

// Clone returns a copy of f whose slices share nothing with f
func (f Feature) Clone() Feature {
	out := f
	if f.Points != nil {
		out.Points = append([]orb.Point(nil), f.Points...)
	}
	if f.Parts != nil {
		out.Parts = append([]int(nil), f.Parts...)
	}
	if f.Attributes != nil {
		out.Attributes = append([]any(nil), f.Attributes...)
	}
	return out
}

// PartBounds returns the inclusive vertex range of part i
func (f Feature) PartBounds(i int) (start, end int) {
	start = f.Parts[i]
	if i < len(f.Parts)-1 {
		end = f.Parts[i+1] - 1
	} else {
		end = len(f.Points) - 1
	}
	return start, end
}

// Part returns the vertices of part i as a line string. The slice aliases Points.
func (f Feature) Part(i int) orb.LineString {
	start, end := f.PartBounds(i)
	return orb.LineString(f.Points[start : end+1])
}

// Reader is the read-only side of a dataset
type Reader interface {
	GeometryKind() GeometryKind
	Schema() Schema
	NumFeatures() int
	// Feature returns the geometry and attribute row of the record at index i (0-based)
	Feature(i int) (Feature, error)
	Projection() string
}
