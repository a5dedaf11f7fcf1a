package segment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// decodeFeature builds a RawFeature from a GeoJSON Feature document.
func decodeFeature(t *testing.T, doc string) RawFeature {
	t.Helper()
	var f RawFeature
	require.NoError(t, json.Unmarshal([]byte(doc), &f))
	return f
}

// decodeCollection builds a FeatureCollection from a GeoJSON document.
func decodeCollection(t *testing.T, doc string) FeatureCollection {
	t.Helper()
	var fc FeatureCollection
	require.NoError(t, json.Unmarshal([]byte(doc), &fc))
	return fc
}

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[151.205,-33.870],[151.207,-33.868],[151.209,-33.866]]},
     "properties": {"OBJECTID": 101, "STREETNAME": "Kent Street", "TYPE": "Separated cycleway", "WIDTH": "3.2"}},
    {"type": "Feature",
     "geometry": {"type": "Polygon", "coordinates": [[[151.0,-33.8],[151.1,-33.8],[151.1,-33.9],[151.0,-33.8]]]},
     "properties": {"OBJECTID": 102, "TYPE": "Painted lane"}},
    {"type": "Feature",
     "geometry": {"type": "MultiLineString", "coordinates": [[[151.212,-33.880],[151.214,-33.882]],[[999,999]]]},
     "properties": {"FID": 7, "NAME": "Oxford Street", "FACILITY_TYPE": "On-road bicycle lane"}},
    {"type": "Feature",
     "geometry": {"type": "Point", "coordinates": [151.180, -33.880]},
     "properties": {"STREET": "Glebe Point Road", "DESCRIPTION": "Shared path past Wentworth Park", "ROAD_TYPE": "Local"}},
    {"type": "Feature",
     "geometry": null,
     "properties": {"OBJECTID": 105}}
  ]
}`
