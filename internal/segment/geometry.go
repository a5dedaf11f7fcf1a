package segment

import (
	"encoding/json"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ExtractCoordinates converts a GeoJSON geometry into lat/lng coordinates.
// Points yield one coordinate, LineStrings one per vertex, and
// MultiLineStrings only their first line. Positions that go-geom rejects,
// such as mixed 2D and 3D vertices, are read directly, keeping the first two
// values of each. Any other type, and any unreadable payload, yields nil.
func ExtractCoordinates(g *geojson.Geometry) []Coordinate {
	if g == nil || g.Coordinates == nil {
		return nil
	}
	switch g.Type {
	case "Point", "LineString", "MultiLineString":
	default:
		return nil
	}

	t, err := g.Decode()
	if err != nil {
		return rawPositions(g.Type, *g.Coordinates)
	}

	switch v := t.(type) {
	case *geom.Point:
		if len(v.FlatCoords()) < 2 {
			return nil
		}
		return toCoordinates([]geom.Coord{v.Coords()})
	case *geom.LineString:
		return toCoordinates(v.Coords())
	case *geom.MultiLineString:
		if v.NumLineStrings() == 0 {
			return nil
		}
		return toCoordinates(v.LineString(0).Coords())
	default:
		return nil
	}
}

// rawPositions reads coordinates without go-geom's layout checks.
func rawPositions(geomType string, raw json.RawMessage) []Coordinate {
	var line [][]float64
	switch geomType {
	case "Point":
		var pt []float64
		if json.Unmarshal(raw, &pt) != nil {
			return nil
		}
		line = [][]float64{pt}
	case "LineString":
		if json.Unmarshal(raw, &line) != nil {
			return nil
		}
	case "MultiLineString":
		var lines [][][]float64
		if json.Unmarshal(raw, &lines) != nil || len(lines) == 0 {
			return nil
		}
		line = lines[0]
	default:
		return nil
	}

	coords := make([]geom.Coord, len(line))
	for i, p := range line {
		coords[i] = geom.Coord(p)
	}
	return toCoordinates(coords)
}

// GeoJSON orders positions [lng, lat].
func toCoordinates(coords []geom.Coord) []Coordinate {
	if len(coords) == 0 {
		return nil
	}
	out := make([]Coordinate, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return nil
		}
		out = append(out, Coordinate{Lat: c[1], Lng: c[0]})
	}
	return out
}

// Center returns the coordinate at index len/2. This is the middle vertex,
// not a geometric centroid.
func Center(coords []Coordinate) (Coordinate, bool) {
	if len(coords) == 0 {
		return Coordinate{}, false
	}
	return coords[len(coords)/2], true
}
