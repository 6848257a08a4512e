package vector

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

const (
	numericLength   = 18
	numericDecimals = 6
)

// ErrMixedGeometry is returned when a GeoJSON collection mixes line and non-line geometries
var ErrMixedGeometry = errors.New("vector: feature collection mixes geometry kinds")

// FromGeoJSON converts a GeoJSON feature collection into an in-memory dataset.
// The schema is inferred from the feature properties, keys sorted by name.
func FromGeoJSON(fc *geojson.FeatureCollection) (*Collection, error) {
	if fc == nil {
		return nil, errors.New("vector: nil feature collection")
	}

	kind := KindNull
	features := make([]Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			return nil, errors.Errorf("vector: feature %d has no geometry", i)
		}

		fk, points, parts, err := flatten(f.Geometry)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %d", i)
		}
		if kind == KindNull {
			kind = fk
		} else if kind != fk && (kind == KindPolyLine || fk == KindPolyLine) {
			return nil, errors.Wrapf(ErrMixedGeometry, "feature %d is %s, collection is %s", i, fk, kind)
		}

		features = append(features, Feature{
			RecordNumber: i + 1,
			Points:       points,
			Parts:        parts,
		})
	}
	if kind == KindNull {
		kind = KindPolyLine
	}

	schema := inferSchema(fc.Features)
	for i := range features {
		row := make([]any, len(schema))
		for j, field := range schema {
			row[j] = attributeValue(fc.Features[i].Properties[field.Name], field)
		}
		features[i].Attributes = row
	}

	return NewCollection(kind, schema, features), nil
}

// UnmarshalGeoJSON parses a GeoJSON FeatureCollection document
func UnmarshalGeoJSON(data []byte) (*Collection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "vector: parse geojson")
	}
	return FromGeoJSON(fc)
}

// ToGeoJSON converts a line dataset into a GeoJSON feature collection
func ToGeoJSON(c *Collection) (*geojson.FeatureCollection, error) {
	if c.GeometryKind().BaseType() != KindPolyLine {
		return nil, errors.Errorf("vector: cannot encode %s dataset as lines", c.GeometryKind())
	}

	names := uniqueNames(c.schema)
	fc := geojson.NewFeatureCollection()
	for _, f := range c.features {
		var g orb.Geometry
		if len(f.Parts) == 1 {
			g = f.Part(0).Clone()
		} else {
			mls := make(orb.MultiLineString, len(f.Parts))
			for i := range f.Parts {
				mls[i] = f.Part(i).Clone()
			}
			g = mls
		}

		feature := geojson.NewFeature(g)
		for j, name := range names {
			if j < len(f.Attributes) {
				feature.Properties[name] = f.Attributes[j]
			}
		}
		fc.Append(feature)
	}
	return fc, nil
}

// MarshalGeoJSON encodes a line dataset as a GeoJSON FeatureCollection document
func MarshalGeoJSON(c *Collection) ([]byte, error) {
	fc, err := ToGeoJSON(c)
	if err != nil {
		return nil, err
	}
	return fc.MarshalJSON()
}

// flatten turns an orb geometry into a vertex array plus part offsets
func flatten(g orb.Geometry) (GeometryKind, []orb.Point, []int, error) {
	switch geom := g.(type) {
	case orb.Point:
		return KindPoint, []orb.Point{geom}, []int{0}, nil
	case orb.MultiPoint:
		return KindMultiPoint, append([]orb.Point(nil), geom...), []int{0}, nil
	case orb.LineString:
		return KindPolyLine, append([]orb.Point(nil), geom...), []int{0}, nil
	case orb.MultiLineString:
		var points []orb.Point
		parts := make([]int, 0, len(geom))
		for _, ls := range geom {
			// An empty member line would produce a duplicate offset
			if len(ls) == 0 {
				continue
			}
			parts = append(parts, len(points))
			points = append(points, ls...)
		}
		return KindPolyLine, points, parts, nil
	case orb.Polygon:
		points, parts := flattenRings(geom)
		return KindPolygon, points, parts, nil
	case orb.MultiPolygon:
		var rings []orb.Ring
		for _, p := range geom {
			rings = append(rings, p...)
		}
		points, parts := flattenRings(rings)
		return KindPolygon, points, parts, nil
	}
	return KindNull, nil, nil, errors.Errorf("unsupported geometry type %s", g.GeoJSONType())
}

func flattenRings(rings []orb.Ring) ([]orb.Point, []int) {
	var points []orb.Point
	parts := make([]int, 0, len(rings))
	for _, r := range rings {
		if len(r) == 0 {
			continue
		}
		parts = append(parts, len(points))
		points = append(points, r...)
	}
	return points, parts
}

func inferSchema(features []*geojson.Feature) Schema {
	seen := make(map[string]bool)
	var keys []string
	for _, f := range features {
		for k := range f.Properties {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	schema := make(Schema, 0, len(keys))
	for _, k := range keys {
		var values []any
		for _, f := range features {
			if v, ok := f.Properties[k]; ok && v != nil {
				values = append(values, v)
			}
		}
		schema = append(schema, describe(k, values))
	}
	return schema
}

// describe picks the column type shared by every observed value. Columns whose values disagree
// become text wide enough for the longest rendered value.
func describe(name string, values []any) Field {
	field := Field{Name: name, Type: FieldCharacter, Length: 1}
	if len(values) == 0 {
		return field
	}

	t := valueType(values[0])
	for _, v := range values[1:] {
		if valueType(v) != t {
			t = FieldCharacter
			break
		}
	}

	switch t {
	case FieldNumeric:
		field.Type = FieldNumeric
		field.Length = numericLength
		for _, v := range values {
			if n := v.(float64); math.Trunc(n) != n {
				field.Decimals = numericDecimals
				break
			}
		}
	case FieldLogical:
		field.Type = FieldLogical
	default:
		for _, v := range values {
			if n := utf8.RuneCountInString(renderText(v)); n > field.Length {
				field.Length = n
			}
		}
	}
	return field
}

func valueType(v any) FieldType {
	switch v.(type) {
	case float64:
		return FieldNumeric
	case bool:
		return FieldLogical
	}
	return FieldCharacter
}

// attributeValue converts a decoded property to the row value stored under field.
// Text columns only ever hold strings.
func attributeValue(v any, field Field) any {
	if v == nil {
		return nil
	}
	if field.Type == FieldCharacter {
		return renderText(v)
	}
	return v
}

// renderText is the text form of a property value; objects and arrays keep their JSON encoding
func renderText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// uniqueNames suffixes repeated field names so that no column is lost in a property map
func uniqueNames(schema Schema) []string {
	used := make(map[string]bool, len(schema))
	for _, f := range schema {
		used[f.Name] = false
	}
	names := make([]string, len(schema))
	for i, f := range schema {
		name := f.Name
		if used[name] {
			for n := 1; ; n++ {
				candidate := fmt.Sprintf("%s_%d", f.Name, n)
				if _, taken := used[candidate]; !taken {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}
