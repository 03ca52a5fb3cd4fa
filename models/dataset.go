package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

// ErrMalformedInput signals an upstream contract violation, as opposed to
// data that is simply not available yet.
var ErrMalformedInput = errors.New("malformed input")

// Latest returns the newest bar of the series
func (s Series) Latest() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Closes extracts closing prices in series order
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Through returns the prefix of the series whose bars are dated on or
// before datetime. Datetimes are ISO formatted so they sort lexically.
func (s Series) Through(datetime string) Series {
	n := sort.Search(len(s), func(i int) bool {
		return s[i].Datetime > datetime
	})
	return s[:n]
}

// Get returns the series for a ticker and whether it is present and non-empty
func (d IndexDataset) Get(ticker string) (Series, bool) {
	s, ok := d[ticker]
	if !ok || len(s) == 0 {
		return nil, false
	}
	return s, true
}

// Through truncates every series to bars dated on or before datetime
func (d IndexDataset) Through(datetime string) IndexDataset {
	out := make(IndexDataset, len(d))
	for ticker, s := range d {
		if t := s.Through(datetime); len(t) > 0 {
			out[ticker] = t
		}
	}
	return out
}

// Tickers returns the dataset tickers in sorted order
func (d IndexDataset) Tickers() []string {
	tickers := make([]string, 0, len(d))
	for t := range d {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// Validate fails fast on values no real market feed can produce
func (d IndexDataset) Validate() error {
	for _, ticker := range d.Tickers() {
		for i, b := range d[ticker] {
			if !finite(b.Close) {
				return fmt.Errorf("%w: %s bar %d has non-finite close", ErrMalformedInput, ticker, i)
			}
			if !finite(b.MA50) || !finite(b.MA200) {
				return fmt.Errorf("%w: %s bar %d has non-finite moving average", ErrMalformedInput, ticker, i)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type rawBar struct {
	Datetime string   `json:"datetime"`
	Open     float64  `json:"open"`
	High     float64  `json:"high"`
	Low      float64  `json:"low"`
	Close    *float64 `json:"close"`
	Volume   int64    `json:"volume"`
	MA50     float64  `json:"ma50"`
	MA200    float64  `json:"ma200"`
}

// DecodeDataset reads a dataset file of the form {"SPY": [{...}, ...]}.
// A bar without a close is rejected with ErrMalformedInput.
func DecodeDataset(r io.Reader) (IndexDataset, error) {
	var raw map[string][]rawBar
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}

	ds := make(IndexDataset, len(raw))
	for ticker, bars := range raw {
		series := make(Series, 0, len(bars))
		for i, rb := range bars {
			if rb.Close == nil {
				return nil, fmt.Errorf("%w: %s bar %d is missing close", ErrMalformedInput, ticker, i)
			}
			series = append(series, Bar{
				Datetime: rb.Datetime,
				Open:     rb.Open,
				High:     rb.High,
				Low:      rb.Low,
				Close:    *rb.Close,
				Volume:   rb.Volume,
				MA50:     rb.MA50,
				MA200:    rb.MA200,
			})
		}
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Datetime < series[j].Datetime
		})
		ds[ticker] = series
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// HasMovingAverages reports whether any bar of the series carries an MA value
func (s Series) HasMovingAverages() bool {
	for _, b := range s {
		if b.MA50 != 0 || b.MA200 != 0 {
			return true
		}
	}
	return false
}
