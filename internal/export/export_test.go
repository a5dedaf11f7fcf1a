package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro2move/segment-cli/internal/segment"
)

var generatedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleSegments() []segment.Segment {
	return []segment.Segment{
		{
			ID:                   "seg_101",
			RoadName:             "Kent Street",
			LocalArea:            "Sydney CBD",
			FacilityType:         segment.SeparatedCycleway,
			SpeedEnvKmh:          50,
			GradientClass:        segment.DefaultGradientClass,
			LightingQuality:      segment.DefaultLightingQuality,
			PopularityScore:      segment.DefaultPopularityScore,
			ComfortScore:         0.9,
			CrashRiskScore:       0.15,
			PerceivedSafetyScore: 0.81,
			Tags:                 []string{segment.TagFamilyFriendly},
			Coordinates: []segment.Coordinate{
				{Lat: -33.866, Lng: 151.205},
				{Lat: -33.868, Lng: 151.207},
			},
			Center:    segment.Coordinate{Lat: -33.868, Lng: 151.207},
			CreatedAt: generatedAt,
			UpdatedAt: generatedAt,
		},
		{
			ID:                   "seg_7",
			RoadName:             "Oxford Street & Bourke",
			LocalArea:            "Surry Hills",
			FacilityType:         segment.PaintedLane,
			IsPopUp:              true,
			SpeedEnvKmh:          60,
			ComfortScore:         0.55,
			CrashRiskScore:       0.45,
			PerceivedSafetyScore: 0.495,
			Tags:                 []string{segment.TagPopUpLane},
			Coordinates:          []segment.Coordinate{{Lat: -33.880, Lng: 151.212}},
			Center:               segment.Coordinate{Lat: -33.880, Lng: 151.212},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", SegmentsJSONFile)
	require.NoError(t, WriteJSON(path, sampleSegments()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Oxford Street & Bourke", "no html escaping")
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"seg_101\"")

	var got []segment.Segment
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sampleSegments(), got)
}

func TestWriteJSON_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), SegmentsJSONFile)
	require.NoError(t, WriteJSON(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestWriteRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), RawNetworkFile)
	raw := []byte(`{"type":"FeatureCollection","features":[]}`)
	require.NoError(t, WriteRaw(path, raw))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestWriteJS(t *testing.T) {
	path := filepath.Join(t.TempDir(), JSDataFile)
	require.NoError(t, WriteJS(path, sampleSegments(), generatedAt))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	js := string(data)

	assert.True(t, strings.HasPrefix(js, "/**\n * MICRO2MOVE SYDNEY - Generated Data"))
	assert.Contains(t, js, " * Generated: 2026-03-01T09:00:00Z\n")
	assert.Contains(t, js, " * Segments: 2\n")
	assert.Contains(t, js, "module.exports = { SEGMENTS };")

	start := strings.Index(js, "const SEGMENTS = ")
	end := strings.Index(js, ";\n\n// Export")
	require.True(t, start >= 0 && end > start)

	var got []segment.Segment
	require.NoError(t, json.Unmarshal([]byte(js[start+len("const SEGMENTS = "):end]), &got))
	assert.Len(t, got, 2)
}

func TestFeatureCollection(t *testing.T) {
	fc := FeatureCollection(sampleSegments())
	require.Len(t, fc.Features, 2)

	line, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, orb.Point{151.205, -33.866}, line[0])
	assert.Equal(t, "seg_101", fc.Features[0].ID)
	assert.Equal(t, "separated_cycleway", fc.Features[0].Properties["facility_type"])
	assert.Equal(t, "family_friendly", fc.Features[0].Properties["tags"])

	pt, ok := fc.Features[1].Geometry.(orb.Point)
	require.True(t, ok)
	assert.Equal(t, orb.Point{151.212, -33.880}, pt)
	assert.Equal(t, true, fc.Features[1].Properties["is_pop_up_cycleway"])
}

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), GeoJSONFile)
	require.NoError(t, WriteGeoJSON(path, sampleSegments()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, "Point", fc.Features[1].Geometry.GeoJSONType())
	assert.Equal(t, "Kent Street", fc.Features[0].Properties.MustString("road_name"))
}

func TestWriteShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gis", ShapefileFile)
	require.NoError(t, WriteShapefile(path, sampleSegments()))

	base := strings.TrimSuffix(path, ".shp")
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		assert.FileExists(t, base+ext)
	}
	assert.NoFileExists(t, base+"dbf")
	assert.NoFileExists(t, base+"shx")

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	names := make([]string, 0, len(r.Fields()))
	for _, f := range r.Fields() {
		names = append(names, strings.TrimRight(f.String(), "\x00"))
	}
	assert.Equal(t, []string{"SEG_ID", "ROAD_NAME", "LOCAL_AREA", "FACILITY", "POP_UP", "SPEED_KMH", "COMFORT", "RISK", "SAFETY", "TAGS"}, names)

	attr := func(i int) string { return strings.TrimSpace(strings.TrimRight(r.Attribute(i), "\x00")) }

	require.True(t, r.Next())
	_, shape := r.Shape()
	line, ok := shape.(*shp.PolyLine)
	require.True(t, ok)
	require.Len(t, line.Points, 2)
	assert.InDelta(t, 151.205, line.Points[0].X, 1e-9)
	assert.InDelta(t, -33.866, line.Points[0].Y, 1e-9)
	assert.Equal(t, "seg_101", attr(0))
	assert.Equal(t, "separated_cycleway", attr(3))
	assert.Equal(t, "0", attr(4))

	require.True(t, r.Next())
	_, shape = r.Shape()
	line, ok = shape.(*shp.PolyLine)
	require.True(t, ok)
	assert.Len(t, line.Points, 1)
	assert.Equal(t, "seg_7", attr(0))
	assert.Equal(t, "1", attr(4))
	assert.Equal(t, "pop_up_lane", attr(9))

	assert.False(t, r.Next())
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	jsDir := filepath.Join(dir, "js")

	paths, err := Write(Options{
		Dir:       filepath.Join(dir, "data"),
		JSDir:     jsDir,
		Formats:   []string{FormatJSON, FormatJS, FormatGeoJSON, FormatShapefile},
		Generated: generatedAt,
	}, sampleSegments())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "data", SegmentsJSONFile),
		filepath.Join(jsDir, JSDataFile),
		filepath.Join(dir, "data", GeoJSONFile),
		filepath.Join(dir, "data", ShapefileFile),
	}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
	assert.FileExists(t, filepath.Join(dir, "data", "segments.dbf"))
}

func TestWrite_JSDirDefaultsToDir(t *testing.T) {
	dir := t.TempDir()
	paths, err := Write(Options{Dir: dir, Formats: []string{FormatJS}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, JSDataFile)}, paths)
}

func TestWrite_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	paths, err := Write(Options{Dir: dir, Formats: []string{FormatJSON, "kml"}}, sampleSegments())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "kml"`)
	assert.Len(t, paths, 1)
}
