package breadth

import (
	"math"

	"github.com/Alias1177/MarketRegime/models"
)

// Options controls the breadth universe and lookbacks
type Options struct {
	// Exclude lists tickers that are not equities, e.g. volatility indices
	Exclude              []string
	HighLowLookback      int
	HighLowSmoothing     int
	AdvanceDeclineWindow int
}

// DefaultOptions returns a 52-week high-low index smoothed over 10 sessions
// and a 10-session advance/decline trend
func DefaultOptions() Options {
	return Options{
		Exclude:              []string{models.VIX},
		HighLowLookback:      252,
		HighLowSmoothing:     10,
		AdvanceDeclineWindow: 10,
	}
}

// Calculator derives breadth readings from a dataset. The put/call ratio is
// global market state and is injected rather than computed.
type Calculator struct {
	opts       Options
	exclude    map[string]struct{}
	putCall    float64
	hasPutCall bool
}

// NewCalculator creates a calculator, filling unset lookbacks with defaults
func NewCalculator(opts Options) *Calculator {
	def := DefaultOptions()
	if opts.HighLowLookback <= 0 {
		opts.HighLowLookback = def.HighLowLookback
	}
	if opts.HighLowSmoothing <= 0 {
		opts.HighLowSmoothing = def.HighLowSmoothing
	}
	if opts.AdvanceDeclineWindow <= 0 {
		opts.AdvanceDeclineWindow = def.AdvanceDeclineWindow
	}

	exclude := make(map[string]struct{}, len(opts.Exclude))
	for _, t := range opts.Exclude {
		exclude[t] = struct{}{}
	}

	return &Calculator{opts: opts, exclude: exclude}
}

// WithPutCallRatio returns a copy of the calculator reporting the given ratio
func (c *Calculator) WithPutCallRatio(ratio float64) *Calculator {
	cp := *c
	if ratio > 0 && !math.IsNaN(ratio) && !math.IsInf(ratio, 0) {
		cp.putCall = ratio
		cp.hasPutCall = true
	} else {
		cp.putCall = 0
		cp.hasPutCall = false
	}
	return &cp
}

// PutCallRatio returns the injected equity put/call ratio, if any
func (c *Calculator) PutCallRatio() (float64, bool) {
	return c.putCall, c.hasPutCall
}

// HighLowIndex averages the record-high percent, new highs / (new highs +
// new lows) * 100, over the smoothing window. A session where no ticker sets
// a record counts as a neutral 50.
func (c *Calculator) HighLowIndex(ds models.IndexDataset) (float64, bool) {
	universe := c.universe(ds)
	lookback := c.opts.HighLowLookback

	var sum float64
	sessions := 0
	for k := 0; k < c.opts.HighLowSmoothing; k++ {
		highs, lows, eligible := 0, 0, 0
		for _, s := range universe {
			end := len(s) - k
			if end < lookback {
				continue
			}
			eligible++
			window := s[end-lookback : end]
			latest := window[len(window)-1].Close
			hi, lo := latest, latest
			for _, b := range window {
				hi = math.Max(hi, b.Close)
				lo = math.Min(lo, b.Close)
			}
			switch {
			case hi == lo:
				// flat window sets no record
			case latest >= hi:
				highs++
			case latest <= lo:
				lows++
			}
		}
		if eligible == 0 {
			continue
		}
		sessions++
		if highs+lows == 0 {
			sum += 50
			continue
		}
		sum += float64(highs) * 100 / float64(highs+lows)
	}

	if sessions == 0 {
		return 0, false
	}
	return sum / float64(sessions), true
}

// AdvanceDeclineTrend is the mean net-advance fraction, (advances -
// declines) / (advances + declines), over the window. Range [-1, 1].
func (c *Calculator) AdvanceDeclineTrend(ds models.IndexDataset) (float64, bool) {
	universe := c.universe(ds)
	window := c.opts.AdvanceDeclineWindow

	var sum float64
	sessions := 0
	for k := 0; k < window; k++ {
		adv, dec, eligible := 0, 0, 0
		for _, s := range universe {
			i := len(s) - 1 - k
			if i < 1 {
				continue
			}
			eligible++
			switch {
			case s[i].Close > s[i-1].Close:
				adv++
			case s[i].Close < s[i-1].Close:
				dec++
			}
		}
		if eligible == 0 {
			continue
		}
		sessions++
		if adv+dec > 0 {
			sum += float64(adv-dec) / float64(adv+dec)
		}
	}

	if sessions == 0 {
		return 0, false
	}
	return sum / float64(sessions), true
}

func (c *Calculator) universe(ds models.IndexDataset) []models.Series {
	out := make([]models.Series, 0, len(ds))
	for _, ticker := range ds.Tickers() {
		if _, skip := c.exclude[ticker]; skip {
			continue
		}
		if s, ok := ds.Get(ticker); ok {
			out = append(out, s)
		}
	}
	return out
}
