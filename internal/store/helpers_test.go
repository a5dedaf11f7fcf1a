package store

import (
	"github.com/micro2move/segment-cli/internal/segment"
)

func testSegments() []segment.Segment {
	return []segment.Segment{
		{
			ID:           "seg_1",
			RoadName:     "Bourke Street",
			LocalArea:    "Surry Hills",
			FacilityType: segment.SeparatedCycleway,
			SpeedEnvKmh:  40,
			ComfortScore: 0.9,
			Tags:         []string{segment.TagFamilyFriendly},
			Coordinates:  []segment.Coordinate{{Lat: -33.88, Lng: 151.21}, {Lat: -33.89, Lng: 151.22}},
		},
		{
			ID:           "seg_2",
			RoadName:     "Pitt Street",
			LocalArea:    "CBD",
			FacilityType: segment.PaintedLane,
			IsPopUp:      true,
			SpeedEnvKmh:  50,
			ComfortScore: 0.6,
			Tags:         []string{segment.TagPopUpLane, segment.TagNearStation},
			Coordinates:  []segment.Coordinate{{Lat: -33.87, Lng: 151.20}},
		},
		{
			ID:           "seg_3",
			RoadName:     "King Street",
			LocalArea:    "Newtown",
			FacilityType: segment.MixedTraffic,
			SpeedEnvKmh:  50,
			ComfortScore: 0.3,
			Tags:         []string{},
			Coordinates:  []segment.Coordinate{{Lat: -33.89, Lng: 151.17}, {Lat: -33.90, Lng: 151.18}},
		},
	}
}

func ids(segs []segment.Segment) []string {
	out := make([]string, len(segs))
	for i := range segs {
		out[i] = segs[i].ID
	}
	return out
}
