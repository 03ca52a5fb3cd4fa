package regime

import "fmt"

// Signal is a soft-condition outcome: a confidence score in [0, 1] that is
// only meaningful when Present. An absent signal scores 0.
type Signal struct {
	Present bool    `json:"present"`
	Score   float64 `json:"score"`
}

// Absent is the default every soft condition starts from
func Absent() Signal {
	return Signal{}
}

// FromBool maps a boolean outcome to 0 or 1
func FromBool(ok bool) Signal {
	if ok {
		return Signal{Present: true, Score: 1}
	}
	return Signal{Present: true, Score: 0}
}

// Value is the contribution to an additional-condition ratio
func (s Signal) Value() float64 {
	if !s.Present {
		return 0
	}
	return s.Score
}

// Reading is an optional market-wide value such as the VIX level
type Reading struct {
	Value   float64 `json:"value"`
	Present bool    `json:"present"`
}

// ReadingOf builds a reading from a (value, ok) pair
func ReadingOf(v float64, ok bool) Reading {
	if !ok {
		return Reading{}
	}
	return Reading{Value: v, Present: true}
}

func (r Reading) String() string {
	if !r.Present {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

// Band is an inclusive numeric range; a nil bound is open
type Band struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// AtLeast is the band [v, +inf)
func AtLeast(v float64) Band {
	return Band{Min: &v}
}

// AtMost is the band (-inf, v]
func AtMost(v float64) Band {
	return Band{Max: &v}
}

// Between is the band [lo, hi]
func Between(lo, hi float64) Band {
	return Band{Min: &lo, Max: &hi}
}

// Contains reports membership, both edges included
func (b Band) Contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// Strength scores one-sided bands with StrengthAbove/StrengthBelow against
// the bound; two-sided bands score plain membership
func (b Band) Strength(v float64) float64 {
	switch {
	case b.Min != nil && b.Max == nil:
		return StrengthAbove(v, *b.Min)
	case b.Max != nil && b.Min == nil:
		return StrengthBelow(v, *b.Max)
	case b.Contains(v):
		return 1
	default:
		return 0
	}
}

// Valid rejects inverted ranges
func (b Band) Valid() bool {
	return b.Min == nil || b.Max == nil || *b.Min <= *b.Max
}

func (b Band) String() string {
	switch {
	case b.Min != nil && b.Max != nil:
		return fmt.Sprintf("[%g, %g]", *b.Min, *b.Max)
	case b.Min != nil:
		return fmt.Sprintf(">= %g", *b.Min)
	case b.Max != nil:
		return fmt.Sprintf("<= %g", *b.Max)
	default:
		return "any"
	}
}
