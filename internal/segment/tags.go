package segment

import "strings"

// GenerateTags derives descriptive labels for a segment. text is the
// lower-cased property text, so a stray "park" in any field yields
// green_space.
func GenerateTags(ft FacilityType, text string, isPopUp bool) []string {
	tags := make([]string, 0, 5)

	if ft == SeparatedCycleway {
		tags = append(tags, TagFamilyFriendly)
	}
	if isPopUp {
		tags = append(tags, TagPopUpLane)
	}
	if strings.Contains(text, "school") {
		tags = append(tags, TagSchoolZone)
	}
	if strings.Contains(text, "station") || strings.Contains(text, "train") {
		tags = append(tags, TagNearStation)
	}
	if strings.Contains(text, "park") {
		tags = append(tags, TagGreenSpace)
	}

	return tags
}
