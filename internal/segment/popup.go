package segment

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FallbackPopUpStreets are the known pandemic-era pop-up cycleways, used when
// the pop-up dataset cannot be fetched.
var FallbackPopUpStreets = []string{
	"OXFORD STREET", "MOORE PARK ROAD", "HENDERSON ROAD",
	"BRIDGE ROAD", "PITT STREET", "CASTLEREAGH STREET",
}

// PopUpStreets is a set of normalized street names.
type PopUpStreets map[string]struct{}

// NewPopUpStreets normalizes names into a set. Blank names are dropped.
func NewPopUpStreets(names []string) PopUpStreets {
	set := make(PopUpStreets, len(names))
	for _, n := range names {
		if key := NormalizeStreet(n); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the normalized name is in the set.
func (s PopUpStreets) Contains(name string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[NormalizeStreet(name)]
	return ok
}

// Names returns the set's members in no particular order.
func (s PopUpStreets) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	return out
}

// NormalizeStreet upper-cases a street name and collapses its whitespace.
// A Caser is stateful, so each call builds its own.
func NormalizeStreet(name string) string {
	return cases.Upper(language.English).String(strings.Join(strings.Fields(name), " "))
}

// IsPopUp reports whether a feature is a pop-up cycleway: either its
// property text mentions a pop-up marker, or its street is a known pop-up.
// text must be the lower-cased output of Properties.Text.
func IsPopUp(props Properties, text string, streets PopUpStreets, rules *Rules) bool {
	if containsAny(text, rules.PopUpMarkers) {
		return true
	}
	street, ok := props.FirstString(rules.StreetKeys...)
	if !ok {
		return false
	}
	return streets.Contains(street)
}
