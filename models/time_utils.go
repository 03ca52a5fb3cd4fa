package models

// CalculateBarsForHistory estimates how many daily bars are needed so the
// slowest moving average is populated for the whole lookback window
func CalculateBarsForHistory(maPeriod, lookback int) int {
	if maPeriod < 1 {
		maPeriod = 1
	}
	if lookback < 1 {
		lookback = 1
	}

	// Add a buffer for holidays and gaps in the feed
	return int(float64(maPeriod+lookback) * 1.1)
}
