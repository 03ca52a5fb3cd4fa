package regime

import (
	"github.com/Alias1177/MarketRegime/internal/breadth"
	"github.com/Alias1177/MarketRegime/models"
)

// soft is an additional condition of a rule table
type soft struct {
	name string
	eval func(in *Input, details map[string]interface{}) Signal
}

// BandDetail is the diagnostic record of a band check
type BandDetail struct {
	Value    float64 `json:"value"`
	Present  bool    `json:"present"`
	Band     string  `json:"band"`
	Strength float64 `json:"strength"`
}

// bandRule scores membership of a market reading in an inclusive band.
// The graded strength is diagnostic only.
func bandRule(name string, reading func(*Input) Reading, b Band) soft {
	return soft{
		name: name,
		eval: func(in *Input, details map[string]interface{}) Signal {
			sig := Absent()
			r := reading(in)
			d := BandDetail{Present: r.Present, Band: b.String()}
			if r.Present {
				d.Value = r.Value
				d.Strength = b.Strength(r.Value)
				sig = FromBool(b.Contains(r.Value))
			}
			details[name] = d
			return sig
		},
	}
}

// sentimentRules are the four market-wide bands every regime reads
func sentimentRules(s Sentiment) []soft {
	return []soft{
		bandRule("vix_level", vixReading, s.VIX),
		bandRule("put_call_ratio", func(in *Input) Reading { return in.Market.PutCallRatio }, s.PutCall),
		bandRule("high_low_index", func(in *Input) Reading { return in.Market.HighLowIndex }, s.HighLow),
		bandRule("advance_decline_trend", func(in *Input) Reading { return in.Market.AdvanceDecline }, s.ADTrend),
	}
}

func vixReading(in *Input) Reading {
	return in.Market.VIX
}

// outperformRule passes when leader's trailing return beats laggard's
func outperformRule(name, leader, laggard string, window int) soft {
	return soft{
		name: name,
		eval: func(in *Input, details map[string]interface{}) Signal {
			returns, ok := trailingReturns(in.Dataset, []string{leader, laggard}, window)
			details[name] = returns
			if !ok {
				return Absent()
			}
			return FromBool(returns[leader] > returns[laggard])
		},
	}
}

// orderingRule passes when trailing returns are strictly decreasing in the
// order the tickers are listed
func orderingRule(name string, tickers []string, window int) soft {
	return soft{
		name: name,
		eval: func(in *Input, details map[string]interface{}) Signal {
			returns, ok := trailingReturns(in.Dataset, tickers, window)
			details[name] = returns
			if !ok {
				return Absent()
			}
			for i := 1; i < len(tickers); i++ {
				if returns[tickers[i-1]] <= returns[tickers[i]] {
					return FromBool(false)
				}
			}
			return FromBool(true)
		},
	}
}

// trailingReturns is ok only when every ticker has a return over window
func trailingReturns(ds models.IndexDataset, tickers []string, window int) (map[string]float64, bool) {
	out := make(map[string]float64, len(tickers))
	complete := true
	for _, ticker := range tickers {
		series, ok := ds.Get(ticker)
		if !ok {
			complete = false
			continue
		}
		r, ok := breadth.ReturnPct(series, window)
		if !ok {
			complete = false
			continue
		}
		out[ticker] = r
	}
	return out, complete
}
