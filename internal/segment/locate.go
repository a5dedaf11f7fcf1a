package segment

import "github.com/paulmach/orb"

// Bound converts b to an orb bound. orb points are [lng, lat].
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// Contains reports whether c lies inside b, edges included.
func (b Bounds) Contains(c Coordinate) bool {
	return b.Bound().Contains(orb.Point{c.Lng, c.Lat})
}

// Locate returns the name of the first local area containing center, or the
// rules' default area when none does. Overlapping areas resolve by list order.
func Locate(center Coordinate, rules *Rules) string {
	for _, area := range rules.LocalAreas {
		if area.Bounds.Contains(center) {
			return area.Name
		}
	}
	return rules.DefaultArea
}
