package models

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataset(t *testing.T) {
	input := `{
		"SPY": [
			{"datetime": "2024-01-03", "close": 101, "ma50": 99, "ma200": 95},
			{"datetime": "2024-01-02", "close": 100, "ma50": 98, "ma200": 94}
		],
		"VIX": [{"datetime": "2024-01-03", "close": 14.5}]
	}`

	ds, err := DecodeDataset(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, ds, 2)

	spy := ds[SPY]
	require.Len(t, spy, 2)
	assert.Equal(t, "2024-01-02", spy[0].Datetime, "bars are sorted oldest first")
	latest, ok := spy.Latest()
	require.True(t, ok)
	assert.Equal(t, 101.0, latest.Close)
	assert.Equal(t, 99.0, latest.MA50)
}

func TestDecodeDataset_MissingClose(t *testing.T) {
	input := `{"SPY": [{"datetime": "2024-01-02", "ma50": 98, "ma200": 94}]}`

	_, err := DecodeDataset(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), "SPY bar 0")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		dataset IndexDataset
		wantErr bool
	}{
		{
			name:    "Empty dataset",
			dataset: IndexDataset{},
		},
		{
			name:    "Finite values",
			dataset: IndexDataset{SPY: {{Close: 100, MA50: 99, MA200: 90}}},
		},
		{
			name:    "NaN close",
			dataset: IndexDataset{SPY: {{Close: math.NaN()}}},
			wantErr: true,
		},
		{
			name:    "Infinite moving average",
			dataset: IndexDataset{QQQ: {{Close: 100, MA200: math.Inf(1)}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dataset.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestThrough(t *testing.T) {
	ds := IndexDataset{
		SPY: {
			{Datetime: "2024-01-02", Close: 1},
			{Datetime: "2024-01-03", Close: 2},
			{Datetime: "2024-01-04", Close: 3},
		},
		QQQ: {
			{Datetime: "2024-01-05", Close: 4},
		},
	}

	cut := ds.Through("2024-01-03")
	require.Contains(t, cut, SPY)
	assert.Len(t, cut[SPY], 2)
	assert.NotContains(t, cut, QQQ, "tickers with no bars before the cut are dropped")
	assert.Len(t, ds[SPY], 3, "input is not mutated")
}

func TestBarMA(t *testing.T) {
	b := Bar{Close: 10, MA50: 9}

	v, ok := b.MA(MA50)
	assert.True(t, ok)
	assert.Equal(t, 9.0, v)

	_, ok = b.MA(MA200)
	assert.False(t, ok, "zero MA means not enough history")
}

func TestCalculateBarsForHistory(t *testing.T) {
	assert.Equal(t, 286, CalculateBarsForHistory(200, 60))
	assert.Equal(t, 2, CalculateBarsForHistory(0, 0))
}
