package regime

import "fmt"

// Code identifies a market regime
type Code string

const (
	// None is returned when no regime qualifies
	None           Code = ""
	AggressiveBull Code = "aggressive_bull"
	Bull           Code = "bull"
	Correction     Code = "correction"
	RiskManagement Code = "risk_management"
	Bear           Code = "bear"
)

// Priority lists every regime, highest precedence first. The stricter
// extreme regimes preempt moderate ones when several qualify.
var Priority = []Code{AggressiveBull, Bull, Correction, RiskManagement, Bear}

func (c Code) String() string {
	if c == None {
		return "none"
	}
	return string(c)
}

// Label returns a display name
func (c Code) Label() string {
	switch c {
	case AggressiveBull:
		return "Aggressive Bull"
	case Bull:
		return "Bull"
	case Correction:
		return "Correction"
	case RiskManagement:
		return "Risk Management"
	case Bear:
		return "Bear"
	default:
		return "Unclassified"
	}
}

// Rank is the position of the code in Priority, or -1
func (c Code) Rank() int {
	for i, p := range Priority {
		if p == c {
			return i
		}
	}
	return -1
}

// ParseCode accepts any regime code as well as "none" and the empty string
func ParseCode(s string) (Code, error) {
	if s == "" || s == "none" {
		return None, nil
	}
	c := Code(s)
	if c.Rank() < 0 {
		return None, fmt.Errorf("unknown regime code %q", s)
	}
	return c, nil
}
