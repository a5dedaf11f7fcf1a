package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		feature  string
		expected []Coordinate
	}{
		{
			name:     "point swaps to lat/lng",
			feature:  `{"geometry": {"type": "Point", "coordinates": [151.2, -33.87]}}`,
			expected: []Coordinate{{Lat: -33.87, Lng: 151.2}},
		},
		{
			name:    "linestring keeps order",
			feature: `{"geometry": {"type": "LineString", "coordinates": [[151.1,-33.1],[151.2,-33.2],[151.3,-33.3]]}}`,
			expected: []Coordinate{
				{Lat: -33.1, Lng: 151.1},
				{Lat: -33.2, Lng: 151.2},
				{Lat: -33.3, Lng: 151.3},
			},
		},
		{
			name:    "multilinestring uses first line only",
			feature: `{"geometry": {"type": "MultiLineString", "coordinates": [[[151.0,-33.8],[151.01,-33.81]],[[999,999]]]}}`,
			expected: []Coordinate{
				{Lat: -33.8, Lng: 151.0},
				{Lat: -33.81, Lng: 151.01},
			},
		},
		{
			name:     "linestring with elevation drops z",
			feature:  `{"geometry": {"type": "LineString", "coordinates": [[151.1,-33.1,12],[151.2,-33.2,14]]}}`,
			expected: []Coordinate{{Lat: -33.1, Lng: 151.1}, {Lat: -33.2, Lng: 151.2}},
		},
		{
			name:     "linestring with mixed dimensions",
			feature:  `{"geometry": {"type": "LineString", "coordinates": [[151.207,-33.868],[151.208,-33.869,12.5]]}}`,
			expected: []Coordinate{{Lat: -33.868, Lng: 151.207}, {Lat: -33.869, Lng: 151.208}},
		},
		{
			name:     "multilinestring with mixed dimensions",
			feature:  `{"geometry": {"type": "MultiLineString", "coordinates": [[[151.0,-33.8,3],[151.01,-33.81]],[[1,2]]]}}`,
			expected: []Coordinate{{Lat: -33.8, Lng: 151.0}, {Lat: -33.81, Lng: 151.01}},
		},
		{
			name:    "position with one value",
			feature: `{"geometry": {"type": "LineString", "coordinates": [[151.0],[151.01,-33.81,4]]}}`,
		},
		{
			name:     "out of range values pass through",
			feature:  `{"geometry": {"type": "Point", "coordinates": [999, 999]}}`,
			expected: []Coordinate{{Lat: 999, Lng: 999}},
		},
		{
			name:    "polygon is unsupported",
			feature: `{"geometry": {"type": "Polygon", "coordinates": [[[151.0,-33.8],[151.1,-33.8],[151.1,-33.9],[151.0,-33.8]]]}}`,
		},
		{
			name:    "empty linestring",
			feature: `{"geometry": {"type": "LineString", "coordinates": []}}`,
		},
		{
			name:    "empty multilinestring",
			feature: `{"geometry": {"type": "MultiLineString", "coordinates": []}}`,
		},
		{
			name:    "missing coordinates",
			feature: `{"geometry": {"type": "LineString"}}`,
		},
		{
			name:    "null coordinates",
			feature: `{"geometry": {"type": "LineString", "coordinates": null}}`,
		},
		{
			name:    "null geometry",
			feature: `{"geometry": null}`,
		},
		{
			name:    "malformed payload",
			feature: `{"geometry": {"type": "LineString", "coordinates": "not-an-array"}}`,
		},
		{
			name:    "unknown type",
			feature: `{"geometry": {"type": "Circle", "coordinates": [1, 2]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := decodeFeature(t, tt.feature)
			got := ExtractCoordinates(f.Geometry)
			if tt.expected == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCenter(t *testing.T) {
	_, ok := Center(nil)
	assert.False(t, ok)

	one := []Coordinate{{Lat: 1, Lng: 1}}
	c, ok := Center(one)
	assert.True(t, ok)
	assert.Equal(t, one[0], c)

	// Index len/2: for four points that is the third.
	four := []Coordinate{{Lat: 1}, {Lat: 2}, {Lat: 3}, {Lat: 4}}
	c, _ = Center(four)
	assert.Equal(t, 3.0, c.Lat)

	three := []Coordinate{{Lat: 1}, {Lat: 2}, {Lat: 3}}
	c, _ = Center(three)
	assert.Equal(t, 2.0, c.Lat)
}
