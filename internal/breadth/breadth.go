// Package breadth computes the market-wide and per-series primitives the
// regime engine reads: moving-average distance, trend persistence, returns,
// drawdowns, the high-low index and the advance/decline trend.
package breadth

import (
	"math"

	"github.com/Alias1177/MarketRegime/models"
)

// MADistance returns the percent distance of the latest close from the
// named moving average. It is unavailable for an empty series or a zero MA.
func MADistance(series models.Series, field models.MAField) (float64, bool) {
	latest, ok := series.Latest()
	if !ok {
		return 0, false
	}
	ma, ok := latest.MA(field)
	if !ok {
		return 0, false
	}
	return percentChange(latest.Close, ma), true
}

// ConsecutiveDaysBelowMA counts bars, newest backwards, closing at or below
// the moving average. Bars without the average stop the count.
func ConsecutiveDaysBelowMA(series models.Series, field models.MAField) int {
	days := 0
	for i := len(series) - 1; i >= 0; i-- {
		ma, ok := series[i].MA(field)
		if !ok || series[i].Close > ma {
			break
		}
		days++
	}
	return days
}

// ReturnPct is the percent change from the first bar of the trailing
// window to the latest bar. Needs at least window bars.
func ReturnPct(series models.Series, window int) (float64, bool) {
	if window < 2 || len(series) < window {
		return 0, false
	}
	base := series[len(series)-window].Close
	if base == 0 {
		return 0, false
	}
	return percentChange(series[len(series)-1].Close, base), true
}

// DrawdownPct is the percent decline of the latest close from the highest
// close of the trailing window. Needs at least window bars.
func DrawdownPct(series models.Series, window int) (float64, bool) {
	if window < 1 || len(series) < window {
		return 0, false
	}
	high := math.Inf(-1)
	for _, b := range series[len(series)-window:] {
		high = math.Max(high, b.Close)
	}
	if high <= 0 {
		return 0, false
	}
	return percentChange(series[len(series)-1].Close, high), true
}

// percentChange multiplies before dividing so round band edges such as
// -15% and -5% come out exact.
func percentChange(value, base float64) float64 {
	return (value - base) * 100 / math.Abs(base)
}
