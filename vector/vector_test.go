package vector

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseType(t *testing.T) {
	assert.Equal(t, KindPolyLine, KindPolyLine.BaseType())
	assert.Equal(t, KindPolyLine, KindPolyLineZ.BaseType())
	assert.Equal(t, KindPolyLine, KindPolyLineM.BaseType())
	assert.Equal(t, KindPolygon, KindPolygonZ.BaseType())
	assert.Equal(t, KindPoint, KindPointM.BaseType())
	assert.Equal(t, "PolyLineZ", KindPolyLineZ.String())
}

func TestPartBounds(t *testing.T) {
	f := Feature{
		Points: []orb.Point{{0, 0}, {1, 0}, {2, 0}, {5, 5}, {6, 6}},
		Parts:  []int{0, 3},
	}
	start, end := f.PartBounds(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)

	start, end = f.PartBounds(1)
	assert.Equal(t, 3, start)
	assert.Equal(t, 4, end)

	assert.Equal(t, orb.LineString{{5, 5}, {6, 6}}, f.Part(1))
}

func TestBuilderFinalize(t *testing.T) {
	schema := Schema{{Name: "ID", Type: FieldNumeric, Length: 10}}
	b := NewBuilder(KindPolyLine, schema)
	b.SetProjection("EPSG:32617")

	rec, err := b.AppendLine(orb.LineString{{0, 0}, {1, 1}}, []any{1})
	require.NoError(t, err)
	assert.Equal(t, 1, rec)

	_, err = b.AppendLine(orb.LineString{{0, 0}, {1, 1}}, []any{1, 2})
	assert.True(t, errors.Is(err, ErrRowLength))

	rec, err = b.AppendLine(orb.LineString{{1, 1}, {2, 2}}, []any{2})
	require.NoError(t, err)
	assert.Equal(t, 2, rec)
	assert.Equal(t, 2, b.Len())

	c, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 2, c.NumFeatures())
	assert.Equal(t, "EPSG:32617", c.Projection())
	assert.Equal(t, KindPolyLine, c.GeometryKind())

	f, err := c.Feature(1)
	require.NoError(t, err)
	assert.Equal(t, 2, f.RecordNumber)
	assert.Equal(t, []int{0}, f.Parts)

	_, err = b.AppendLine(orb.LineString{{0, 0}, {1, 1}}, []any{3})
	assert.True(t, errors.Is(err, ErrFinalized))
	_, err = b.Finalize()
	assert.True(t, errors.Is(err, ErrFinalized))
	assert.Equal(t, 2, c.NumFeatures())
}

func TestCollectionFeatureOutOfRange(t *testing.T) {
	c := NewCollection(KindPolyLine, nil, nil)
	_, err := c.Feature(0)
	assert.Error(t, err)
	_, err = c.Feature(-1)
	assert.Error(t, err)
}

func TestSchemaIsCopied(t *testing.T) {
	schema := Schema{{Name: "A"}}
	c := NewCollection(KindPolyLine, schema, nil)
	schema[0].Name = "B"
	assert.Equal(t, []string{"A"}, c.Schema().Names())

	got := c.Schema()
	got[0].Name = "C"
	assert.Equal(t, []string{"A"}, c.Schema().Names())
}

const riversGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[0, 0], [3, 0], [10, 0]]},
     "properties": {"name": "creek", "order": 2, "navigable": false}},
    {"type": "Feature",
     "geometry": {"type": "MultiLineString", "coordinates": [[[0, 0], [0, 1]], [], [[5, 5], [6, 6], [7, 7]]]},
     "properties": {"name": "delta", "order": 3.5, "tags": ["a", "b"]}}
  ]
}`

func TestUnmarshalGeoJSON(t *testing.T) {
	c, err := UnmarshalGeoJSON([]byte(riversGeoJSON))
	require.NoError(t, err)

	assert.Equal(t, KindPolyLine, c.GeometryKind())
	require.Equal(t, 2, c.NumFeatures())

	assert.Equal(t, Schema{
		{Name: "name", Type: FieldCharacter, Length: 5},
		{Name: "navigable", Type: FieldLogical, Length: 1},
		{Name: "order", Type: FieldNumeric, Length: numericLength, Decimals: numericDecimals},
		{Name: "tags", Type: FieldCharacter, Length: 9},
	}, c.Schema())

	first, err := c.Feature(0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.RecordNumber)
	assert.Equal(t, []int{0}, first.Parts)
	assert.Equal(t, []any{"creek", false, 2.0, nil}, first.Attributes)

	second, err := c.Feature(1)
	require.NoError(t, err)
	assert.Equal(t, 2, second.RecordNumber)
	assert.Equal(t, []int{0, 2}, second.Parts)
	assert.Equal(t, orb.LineString{{5, 5}, {6, 6}, {7, 7}}, second.Part(1))
	assert.Equal(t, []any{"delta", nil, 3.5, `["a","b"]`}, second.Attributes)
}

func TestUnmarshalGeoJSONMixedTypes(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,0]]},"properties":{"code":12345,"flag":true}},
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[2,0]]},"properties":{"code":"ab","flag":"maybe"}},
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[3,0]]},"properties":{"code":null}}]}`

	c, err := UnmarshalGeoJSON([]byte(doc))
	require.NoError(t, err)

	// the longest value seen in each column sets its width, whatever its position
	assert.Equal(t, Schema{
		{Name: "code", Type: FieldCharacter, Length: 5},
		{Name: "flag", Type: FieldCharacter, Length: 5},
	}, c.Schema())

	want := [][]any{
		{"12345", "true"},
		{"ab", "maybe"},
		{nil, nil},
	}
	for i, row := range want {
		f, err := c.Feature(i)
		require.NoError(t, err)
		assert.Equal(t, row, f.Attributes, "record %d", f.RecordNumber)
	}
}

func TestCollectionCopies(t *testing.T) {
	src := []Feature{{
		RecordNumber: 1,
		Points:       []orb.Point{{0, 0}, {1, 0}},
		Parts:        []int{0},
		Attributes:   []any{"a"},
	}}
	c := NewCollection(KindPolyLine, Schema{{Name: "A", Type: FieldCharacter, Length: 1}}, src)

	src[0].Points[0] = orb.Point{9, 9}
	src[0].Attributes[0] = "z"

	all := c.Features()
	all[0].Points[1] = orb.Point{8, 8}
	all[0].Parts[0] = 5

	one, err := c.Feature(0)
	require.NoError(t, err)
	one.Attributes[0] = "y"

	again, err := c.Feature(0)
	require.NoError(t, err)
	assert.Equal(t, []orb.Point{{0, 0}, {1, 0}}, again.Points)
	assert.Equal(t, []int{0}, again.Parts)
	assert.Equal(t, []any{"a"}, again.Attributes)
}

func TestUnmarshalGeoJSONKinds(t *testing.T) {
	points := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}}]}`
	c, err := UnmarshalGeoJSON([]byte(points))
	require.NoError(t, err)
	assert.Equal(t, KindPoint, c.GeometryKind())

	empty := `{"type":"FeatureCollection","features":[]}`
	c, err = UnmarshalGeoJSON([]byte(empty))
	require.NoError(t, err)
	assert.Equal(t, KindPolyLine, c.GeometryKind())

	mixed := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},"properties":{}}]}`
	_, err = UnmarshalGeoJSON([]byte(mixed))
	assert.True(t, errors.Is(err, ErrMixedGeometry))

	_, err = UnmarshalGeoJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestMarshalGeoJSON(t *testing.T) {
	schema := Schema{
		{Name: "FID", Type: FieldNumeric, Length: 10},
		{Name: "PARENT_FID", Type: FieldNumeric, Length: 10},
		{Name: "FID", Type: FieldNumeric, Length: 10},
		{Name: "name", Type: FieldCharacter, Length: 8},
	}
	b := NewBuilder(KindPolyLine, schema)
	_, err := b.AppendLine(orb.LineString{{0, 0}, {3, 0}, {8, 0}}, []any{0, 4, 99.0, "creek"})
	require.NoError(t, err)
	c, err := b.Finalize()
	require.NoError(t, err)

	data, err := MarshalGeoJSON(c)
	require.NoError(t, err)

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 1)
	assert.Equal(t, "LineString", doc.Features[0].Geometry.Type)
	assert.Equal(t, [][]float64{{0, 0}, {3, 0}, {8, 0}}, doc.Features[0].Geometry.Coordinates)
	assert.Equal(t, map[string]any{
		"FID":        0.0,
		"PARENT_FID": 4.0,
		"FID_1":      99.0,
		"name":       "creek",
	}, doc.Features[0].Properties)
}

func TestMarshalGeoJSONRejectsNonLines(t *testing.T) {
	_, err := MarshalGeoJSON(NewCollection(KindPoint, nil, nil))
	assert.Error(t, err)
}
