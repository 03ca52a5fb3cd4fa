package indicators

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/Alias1177/MarketRegime/models"
)

const (
	// ShortPeriod is the 50-session moving average
	ShortPeriod = 50
	// LongPeriod is the 200-session moving average
	LongPeriod = 200
)

// SMA computes the simple moving average aligned to the input: out[i] is
// the mean of values[i-period+1..i], and 0 until a full period is available
func SMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period < 1 || len(values) < period {
		return out
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	result := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))

	// The indicator skips the warm-up, so its output is shorter
	offset := len(values) - len(result)
	copy(out[offset:], result)
	return out
}

// AttachMovingAverages returns a copy of the series with MA50 and MA200
// computed from closes. Bars inside the warm-up keep 0, which the engine
// reads as unavailable.
func AttachMovingAverages(series models.Series) models.Series {
	out := make(models.Series, len(series))
	copy(out, series)

	closes := series.Closes()
	ma50 := SMA(closes, ShortPeriod)
	ma200 := SMA(closes, LongPeriod)
	for i := range out {
		out[i].MA50 = ma50[i]
		out[i].MA200 = ma200[i]
	}
	return out
}

// EnsureMovingAverages attaches averages to every series that carries none
func EnsureMovingAverages(ds models.IndexDataset) models.IndexDataset {
	out := make(models.IndexDataset, len(ds))
	for ticker, s := range ds {
		if s.HasMovingAverages() {
			out[ticker] = s
			continue
		}
		out[ticker] = AttachMovingAverages(s)
	}
	return out
}
