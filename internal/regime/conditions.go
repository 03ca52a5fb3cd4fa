package regime

import (
	"github.com/Alias1177/MarketRegime/internal/breadth"
	"github.com/Alias1177/MarketRegime/models"
)

// metric extracts one number from a ticker series; ok is false when the
// series lacks the history or fields the metric needs
type metric func(models.Series) (float64, bool)

// predicate decides whether a metric value satisfies a check
type predicate func(float64) bool

// check is an essential condition of a rule table
type check struct {
	name string
	eval func(in *Input, details map[string]interface{}) bool
}

// CountDetail is the diagnostic record of a count-of-N check
type CountDetail struct {
	Count    int                `json:"count"`
	Required int                `json:"required"`
	Passing  []string           `json:"passing,omitempty"`
	Values   map[string]float64 `json:"values"`
	Missing  []string           `json:"missing,omitempty"`
}

// countRule passes when at least need tickers have a metric satisfying pred.
// Missing tickers and short series contribute nothing.
func countRule(name string, tickers []string, need int, m metric, pred predicate) check {
	return check{
		name: name,
		eval: func(in *Input, details map[string]interface{}) bool {
			d := CountDetail{Required: need, Values: make(map[string]float64, len(tickers))}
			for _, ticker := range tickers {
				series, ok := in.Dataset.Get(ticker)
				if !ok {
					d.Missing = append(d.Missing, ticker)
					continue
				}
				v, ok := m(series)
				if !ok {
					d.Missing = append(d.Missing, ticker)
					continue
				}
				d.Values[ticker] = v
				if pred(v) {
					d.Count++
					d.Passing = append(d.Passing, ticker)
				}
			}
			details[name] = d
			return d.Count >= need
		},
	}
}

// placeholderRule is an essential condition with no data behind it yet. It
// always passes and says so in the details.
func placeholderRule(name string) check {
	return check{
		name: name,
		eval: func(_ *Input, details map[string]interface{}) bool {
			details[name] = map[string]interface{}{
				"placeholder": true,
				"value":       true,
			}
			return true
		},
	}
}

func maDistance(field models.MAField) metric {
	return func(s models.Series) (float64, bool) {
		return breadth.MADistance(s, field)
	}
}

func returnOver(window int) metric {
	return func(s models.Series) (float64, bool) {
		return breadth.ReturnPct(s, window)
	}
}

func drawdownOver(window int) metric {
	return func(s models.Series) (float64, bool) {
		return breadth.DrawdownPct(s, window)
	}
}

func daysBelow(field models.MAField) metric {
	return func(s models.Series) (float64, bool) {
		latest, ok := s.Latest()
		if !ok {
			return 0, false
		}
		if _, ok := latest.MA(field); !ok {
			return 0, false
		}
		return float64(breadth.ConsecutiveDaysBelowMA(s, field)), true
	}
}

func above(threshold float64) predicate {
	return func(v float64) bool { return v > threshold }
}

func atLeast(threshold float64) predicate {
	return func(v float64) bool { return v >= threshold }
}

func atMost(threshold float64) predicate {
	return func(v float64) bool { return v <= threshold }
}

func within(b Band) predicate {
	return b.Contains
}
