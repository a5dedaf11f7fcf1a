package segment

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultAreaName is returned when a center falls in no configured area.
const DefaultAreaName = "City of Sydney"

// FacilityMatcher maps any of Substrings to Type.
type FacilityMatcher struct {
	Type       FacilityType `yaml:"type"`
	Substrings []string     `yaml:"substrings"`
}

// SpeedMatcher maps any of Substrings in the road type to a speed environment.
type SpeedMatcher struct {
	Kmh        int      `yaml:"kmh"`
	Substrings []string `yaml:"substrings"`
}

// Rules is the static configuration of the pipeline: candidate field names,
// classification substrings, score tables and local areas. It is built once
// and shared read-only.
type Rules struct {
	TypeKeys         []string                 `yaml:"type_keys"`
	FacilityMatchers []FacilityMatcher        `yaml:"facility_matchers"`
	WidthKeys        []string                 `yaml:"width_keys"`
	BaseComfort      map[FacilityType]float64 `yaml:"base_comfort"`
	BaseRisk         map[FacilityType]float64 `yaml:"base_risk"`
	DefaultComfort   float64                  `yaml:"default_comfort"`
	DefaultRisk      float64                  `yaml:"default_risk"`
	IDKeys           []string                 `yaml:"id_keys"`
	RoadNameKeys     []string                 `yaml:"road_name_keys"`
	StreetKeys       []string                 `yaml:"street_keys"`
	RoadTypeKeys     []string                 `yaml:"road_type_keys"`
	SpeedMatchers    []SpeedMatcher           `yaml:"speed_matchers"`
	PopUpMarkers     []string                 `yaml:"popup_markers"`
	LocalAreas       []LocalArea              `yaml:"local_areas"`
	DefaultArea      string                   `yaml:"default_area"`
}

// DefaultRules returns the City of Sydney rule set.
func DefaultRules() *Rules {
	return &Rules{
		TypeKeys: []string{
			"FACILITY_TYPE", "FACILITYTYPE", "TYPE", "CYCLEWAY_TYPE",
			"BIKE_FACILITY", "facility_type", "type", "infrastructure",
		},
		// Order matters: the first matcher with a hit wins.
		FacilityMatchers: []FacilityMatcher{
			{Type: SeparatedCycleway, Substrings: []string{"separated", "protected", "segregated", "off-road cycleway"}},
			{Type: PaintedLane, Substrings: []string{"painted", "on-road", "marked lane", "bicycle lane"}},
			{Type: SharedPath, Substrings: []string{"shared", "path", "shared path", "mixed use"}},
		},
		WidthKeys: []string{"WIDTH", "LANE_WIDTH", "width", "lane_width"},
		BaseComfort: map[FacilityType]float64{
			SeparatedCycleway: 0.85,
			SharedPath:        0.75,
			PaintedLane:       0.55,
			MixedTraffic:      0.30,
		},
		BaseRisk: map[FacilityType]float64{
			SeparatedCycleway: 0.15,
			SharedPath:        0.20,
			PaintedLane:       0.45,
			MixedTraffic:      0.65,
		},
		DefaultComfort: 0.5,
		DefaultRisk:    0.5,
		IDKeys:         []string{"OBJECTID", "FID", "id"},
		RoadNameKeys:   []string{"STREETNAME", "STREET", "NAME", "street_name", "street", "name", "road_name"},
		StreetKeys:     []string{"STREETNAME", "STREET", "NAME", "street_name", "street", "name"},
		RoadTypeKeys:   []string{"ROAD_TYPE", "ROADTYPE"},
		SpeedMatchers: []SpeedMatcher{
			{Kmh: 40, Substrings: []string{"local", "residential"}},
			{Kmh: 50, Substrings: []string{"collector"}},
			{Kmh: 60, Substrings: []string{"arterial", "main"}},
		},
		PopUpMarkers: []string{"pop-up", "popup", "temporary"},
		LocalAreas:   sydneyAreas(),
		DefaultArea:  DefaultAreaName,
	}
}

func sydneyAreas() []LocalArea {
	box := func(name string, minLat, maxLat, minLng, maxLng float64) LocalArea {
		return LocalArea{Name: name, Bounds: Bounds{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}}
	}
	return []LocalArea{
		box("Sydney CBD", -33.875, -33.860, 151.200, 151.215),
		box("Surry Hills", -33.895, -33.875, 151.205, 151.220),
		box("Darlinghurst", -33.885, -33.870, 151.215, 151.230),
		box("Redfern", -33.900, -33.885, 151.195, 151.210),
		box("Pyrmont", -33.875, -33.860, 151.185, 151.200),
		box("Ultimo", -33.885, -33.875, 151.190, 151.205),
		box("Glebe", -33.885, -33.870, 151.175, 151.190),
		box("Newtown", -33.905, -33.890, 151.175, 151.190),
		box("Chippendale", -33.890, -33.880, 151.195, 151.205),
		box("Waterloo", -33.910, -33.895, 151.200, 151.215),
		box("Alexandria", -33.915, -33.900, 151.185, 151.205),
		box("Haymarket", -33.885, -33.878, 151.200, 151.210),
		box("Woolloomooloo", -33.875, -33.865, 151.215, 151.230),
		box("Potts Point", -33.875, -33.865, 151.220, 151.235),
		box("Erskineville", -33.905, -33.895, 151.185, 151.195),
	}
}

// LoadRules reads a YAML rules file. Sections left out of the file keep
// their DefaultRules values.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "segment: read rules %s", path)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, eris.Wrapf(err, "segment: parse rules %s", path)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// Validate checks that the rule set is internally consistent.
func (r *Rules) Validate() error {
	for _, m := range r.FacilityMatchers {
		if !m.Type.Valid() {
			return eris.Errorf("segment: rules: unknown facility type %q", m.Type)
		}
	}
	for ft, v := range r.BaseComfort {
		if !ft.Valid() {
			return eris.Errorf("segment: rules: unknown facility type %q in base_comfort", ft)
		}
		if v < 0 || v > 1 {
			return eris.Errorf("segment: rules: base_comfort[%s] = %v out of [0,1]", ft, v)
		}
	}
	for ft, v := range r.BaseRisk {
		if !ft.Valid() {
			return eris.Errorf("segment: rules: unknown facility type %q in base_risk", ft)
		}
		if v < 0 || v > 1 {
			return eris.Errorf("segment: rules: base_risk[%s] = %v out of [0,1]", ft, v)
		}
	}
	for _, a := range r.LocalAreas {
		if a.Name == "" {
			return eris.New("segment: rules: local area with empty name")
		}
		if a.Bounds.MinLat > a.Bounds.MaxLat || a.Bounds.MinLng > a.Bounds.MaxLng {
			return eris.Errorf("segment: rules: local area %q has inverted bounds", a.Name)
		}
	}
	if r.DefaultArea == "" {
		return eris.New("segment: rules: default_area is required")
	}
	return nil
}
