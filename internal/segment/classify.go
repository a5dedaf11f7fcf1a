package segment

import "strings"

// Classify maps a property bag to a facility type. The first non-empty value
// among the rules' type keys is lower-cased and tested against each matcher
// in order; the first hit wins. Anything unmatched is mixed traffic.
func Classify(props Properties, rules *Rules) FacilityType {
	raw, ok := props.FirstString(rules.TypeKeys...)
	if !ok {
		return MixedTraffic
	}
	value := strings.ToLower(raw)

	for _, m := range rules.FacilityMatchers {
		if containsAny(value, m.Substrings) {
			return m.Type
		}
	}
	return MixedTraffic
}

// SpeedEnvironment estimates the posted speed from the road type field.
func SpeedEnvironment(props Properties, rules *Rules) int {
	raw, ok := props.FirstString(rules.RoadTypeKeys...)
	if !ok {
		return DefaultSpeedEnvKmh
	}
	roadType := strings.ToLower(raw)

	for _, m := range rules.SpeedMatchers {
		if containsAny(roadType, m.Substrings) {
			return m.Kmh
		}
	}
	return DefaultSpeedEnvKmh
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
