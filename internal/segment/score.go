package segment

import "math"

// Width thresholds (metres) for the comfort adjustment.
const (
	wideLaneWidth   = 3.0
	mediumLaneWidth = 2.0
	narrowLaneWidth = 1.5

	wideLaneBonus     = 0.05
	mediumLaneBonus   = 0.02
	narrowLanePenalty = 0.10

	perceivedSafetyFactor = 0.9
)

// Scores holds the derived rider-experience ratings for a segment.
type Scores struct {
	Comfort         float64
	Risk            float64
	PerceivedSafety float64
	// Width is the declared lane width the comfort score was adjusted by, 0 if none.
	Width float64
}

// Score derives comfort, risk and perceived safety for a facility type.
// All three are clamped to [0,1].
func Score(ft FacilityType, props Properties, rules *Rules) Scores {
	width, _ := props.FirstFloat(rules.WidthKeys...)

	comfort := clamp01(Comfort(ft, width, rules))
	return Scores{
		Comfort:         comfort,
		Risk:            Risk(ft, rules),
		PerceivedSafety: clamp01(comfort * perceivedSafetyFactor),
		Width:           width,
	}
}

// Comfort returns the facility's base comfort adjusted by lane width.
// A width of zero means unknown and leaves the base untouched.
func Comfort(ft FacilityType, width float64, rules *Rules) float64 {
	score, ok := rules.BaseComfort[ft]
	if !ok {
		score = rules.DefaultComfort
	}

	switch {
	case width >= wideLaneWidth:
		score += wideLaneBonus
	case width >= mediumLaneWidth:
		score += mediumLaneBonus
	case width > 0 && width < narrowLaneWidth:
		score -= narrowLanePenalty
	}

	return clamp01(round(score))
}

// Risk returns the crash risk for a facility type.
func Risk(ft FacilityType, rules *Rules) float64 {
	risk, ok := rules.BaseRisk[ft]
	if !ok {
		risk = rules.DefaultRisk
	}
	return clamp01(risk)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

// round trims float noise such as 0.55+0.05 = 0.6000000000000001.
func round(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
