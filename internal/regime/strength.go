package regime

import "math"

// StrengthAbove scores how far value sits above threshold, relative to the
// threshold's magnitude, clamped to [0, 1]. A zero threshold has no
// direction and scores 0.
func StrengthAbove(value, threshold float64) float64 {
	if threshold == 0 {
		return 0
	}
	return clamp01((value - threshold) / math.Abs(threshold))
}

// StrengthBelow mirrors StrengthAbove for values under the threshold
func StrengthBelow(value, threshold float64) float64 {
	if threshold == 0 {
		return 0
	}
	return clamp01((threshold - value) / math.Abs(threshold))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
