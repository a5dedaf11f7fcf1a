// Package segment turns cycle-network GeoJSON features into scored, tagged
// road segments. Every function here is pure: the same feature and rules
// always produce the same segment.
package segment

import (
	"encoding/json"
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"
)

// FacilityType classifies how well a segment separates riders from traffic.
type FacilityType string

const (
	SeparatedCycleway FacilityType = "separated_cycleway"
	PaintedLane       FacilityType = "painted_lane"
	SharedPath        FacilityType = "shared_path"
	MixedTraffic      FacilityType = "mixed_traffic"
)

// FacilityTypes lists every facility type, most protected first.
var FacilityTypes = []FacilityType{SeparatedCycleway, SharedPath, PaintedLane, MixedTraffic}

// Valid reports whether f is one of the known facility types.
func (f FacilityType) Valid() bool {
	switch f {
	case SeparatedCycleway, PaintedLane, SharedPath, MixedTraffic:
		return true
	default:
		return false
	}
}

// Tags attached by the tag generator.
const (
	TagFamilyFriendly = "family_friendly"
	TagPopUpLane      = "pop_up_lane"
	TagSchoolZone     = "school_zone"
	TagNearStation    = "near_station"
	TagGreenSpace     = "green_space"
)

// Placeholder values for attributes the cycle network feed does not carry.
const (
	DefaultGradientClass   = "flat"
	DefaultLightingQuality = "unknown"
	DefaultPopularityScore = 0.5
	DefaultSpeedEnvKmh     = 50
)

// Coordinate is a WGS84 position. Values are passed through unvalidated.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// RawFeature is one feature of the upstream FeatureCollection.
type RawFeature struct {
	Type       string            `json:"type,omitempty"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties Properties        `json:"properties"`

	// Malformed holds the decode error of a feature that could not be read.
	// Such a feature keeps its position but produces no segment.
	Malformed string `json:"-"`
}

// FeatureCollection is the upstream GeoJSON document.
type FeatureCollection struct {
	Type     string       `json:"type"`
	Features []RawFeature `json:"features"`
}

// UnmarshalJSON decodes each feature on its own, so one bad feature is
// recorded as Malformed instead of failing the whole collection. A missing
// "features" member leaves Features nil.
func (fc *FeatureCollection) UnmarshalJSON(data []byte) error {
	var doc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	fc.Type = doc.Type
	fc.Features = nil
	if doc.Features == nil {
		return nil
	}
	fc.Features = make([]RawFeature, len(doc.Features))
	for i, raw := range doc.Features {
		var f RawFeature
		if err := json.Unmarshal(raw, &f); err != nil {
			fc.Features[i] = RawFeature{Malformed: err.Error()}
			continue
		}
		fc.Features[i] = f
	}
	return nil
}

// Segment is the normalized record emitted for each usable feature.
type Segment struct {
	ID                   string       `json:"id"`
	RoadName             string       `json:"road_name"`
	LocalArea            string       `json:"local_area"`
	FacilityType         FacilityType `json:"facility_type"`
	IsPopUp              bool         `json:"is_pop_up_cycleway"`
	SpeedEnvKmh          int          `json:"speed_env_kmh"`
	LaneWidthM           float64      `json:"lane_width_m"`
	GradientClass        string       `json:"gradient_class"`
	LightingQuality      string       `json:"lighting_quality"`
	HeavyLoadingZone     bool         `json:"heavy_loading_zone"`
	HasBikeCounts        bool         `json:"has_bike_counts"`
	DailyBikeTrips       *int         `json:"daily_bike_trips"`
	PopularityScore      float64      `json:"popularity_score"`
	CrashRiskScore       float64      `json:"crash_risk_score"`
	ComfortScore         float64      `json:"comfort_score"`
	PerceivedSafetyScore float64      `json:"perceived_safety_score"`
	AvgUserRating        *float64     `json:"avg_user_rating"`
	RatingCount          int          `json:"rating_count"`
	Tags                 []string     `json:"tags"`
	Coordinates          []Coordinate `json:"coordinates"`
	Center               Coordinate   `json:"center"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// HasTag reports whether the segment carries tag.
func (s *Segment) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Bounds is an inclusive lat/lng rectangle.
type Bounds struct {
	MinLat float64 `json:"minLat" yaml:"min_lat"`
	MaxLat float64 `json:"maxLat" yaml:"max_lat"`
	MinLng float64 `json:"minLng" yaml:"min_lng"`
	MaxLng float64 `json:"maxLng" yaml:"max_lng"`
}

// LocalArea is a named neighbourhood box.
type LocalArea struct {
	Name   string `json:"name" yaml:"name"`
	Bounds Bounds `json:"bounds" yaml:"bounds"`
}
