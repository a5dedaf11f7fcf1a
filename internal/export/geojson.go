package export

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/micro2move/segment-cli/internal/segment"
)

// Geometry converts segment coordinates to an orb geometry: a Point for a
// single coordinate, otherwise a LineString.
func Geometry(coords []segment.Coordinate) orb.Geometry {
	if len(coords) == 1 {
		return orb.Point{coords[0].Lng, coords[0].Lat}
	}
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c.Lng, c.Lat}
	}
	return ls
}

// FeatureCollection renders segments as GeoJSON features carrying their
// scores and labels as properties.
func FeatureCollection(segs []segment.Segment) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range segs {
		f := geojson.NewFeature(Geometry(s.Coordinates))
		f.ID = s.ID
		f.Properties["id"] = s.ID
		f.Properties["road_name"] = s.RoadName
		f.Properties["local_area"] = s.LocalArea
		f.Properties["facility_type"] = string(s.FacilityType)
		f.Properties["is_pop_up_cycleway"] = s.IsPopUp
		f.Properties["speed_env_kmh"] = s.SpeedEnvKmh
		f.Properties["comfort_score"] = s.ComfortScore
		f.Properties["crash_risk_score"] = s.CrashRiskScore
		f.Properties["perceived_safety_score"] = s.PerceivedSafetyScore
		f.Properties["tags"] = strings.Join(s.Tags, ",")
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes segments as a GeoJSON FeatureCollection.
func WriteGeoJSON(path string, segs []segment.Segment) error {
	data, err := FeatureCollection(segs).MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "export: marshal geojson")
	}
	return writeFile(path, data)
}
