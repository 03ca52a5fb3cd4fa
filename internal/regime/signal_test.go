package regime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrength(t *testing.T) {
	tests := []struct {
		name      string
		fn        func(float64, float64) float64
		value     float64
		threshold float64
		want      float64
	}{
		{"Above scales by threshold", StrengthAbove, 110, 100, 0.1},
		{"Above clamps high", StrengthAbove, 500, 100, 1},
		{"Above clamps low", StrengthAbove, 90, 100, 0},
		{"Above with negative threshold", StrengthAbove, -90, -100, 0.1},
		{"Above with zero threshold", StrengthAbove, 10, 0, 0},
		{"Below scales by threshold", StrengthBelow, 15, 20, 0.25},
		{"Below with negative threshold", StrengthBelow, -0.3, -0.2, 0.5},
		{"Below with zero threshold", StrengthBelow, -5, 0, 0},
		{"NaN value", StrengthBelow, math.NaN(), 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.fn(tt.value, tt.threshold), 1e-9)
		})
	}
}

func TestSignal(t *testing.T) {
	assert.Equal(t, 0.0, Absent().Value())
	assert.False(t, Absent().Present)
	assert.Equal(t, 1.0, FromBool(true).Value())
	assert.Equal(t, Signal{Present: true}, FromBool(false))
}

func TestBand(t *testing.T) {
	b := Between(-15, -5)
	assert.True(t, b.Contains(-15))
	assert.True(t, b.Contains(-5))
	assert.False(t, b.Contains(-15.0001))
	assert.False(t, b.Contains(-4.9999))
	assert.Equal(t, 1.0, b.Strength(-10))
	assert.Equal(t, "[-15, -5]", b.String())

	assert.True(t, AtMost(20).Contains(20))
	assert.InDelta(t, 0.25, AtMost(20).Strength(15), 1e-9)
	assert.True(t, AtLeast(70).Contains(70))
	assert.Equal(t, 0.0, AtLeast(70).Strength(70))
	assert.Equal(t, "any", Band{}.String())
	assert.True(t, Band{}.Contains(math.MaxFloat64))

	assert.False(t, Between(3, 1).Valid())
}

func TestReading(t *testing.T) {
	r := ReadingOf(14.5, true)
	assert.Equal(t, "14.50", r.String())
	assert.Equal(t, Reading{}, ReadingOf(14.5, false))
	assert.Equal(t, "n/a", Reading{}.String())
}

func TestCodes(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, 0, AggressiveBull.Rank())
	assert.Equal(t, 4, Bear.Rank())
	assert.Equal(t, -1, Code("sideways").Rank())

	c, err := ParseCode("risk_management")
	require.NoError(t, err)
	assert.Equal(t, RiskManagement, c)

	c, err = ParseCode("none")
	require.NoError(t, err)
	assert.Equal(t, None, c)

	_, err = ParseCode("sideways")
	assert.Error(t, err)
}

func TestThresholdsValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	th := DefaultThresholds()
	th.Correction.AdditionalThreshold = 1.5
	th.Bear.MinInDrawdown = 5
	th.Bull.BiotechNeutral = Between(3, 0)
	th.MomentumWindow = 1

	err := th.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidThresholds)
	for _, field := range []string{"correction.additional_threshold", "bear.min_in_drawdown", "bull.biotech_neutral", "momentum_window"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestThresholdsValidate_CountsAndFiniteValues(t *testing.T) {
	th := DefaultThresholds()
	th.AggressiveBull.MinAboveMA50 = 0
	th.Bull.MinLargeCapsAboveMA50 = 3
	th.Bear.MinBelowMA200 = 5
	th.MA200DistancePct = math.NaN()
	th.BiotechBreakoutPct = math.Inf(1)

	err := th.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidThresholds)
	for _, field := range []string{
		"aggressive_bull.min_above_ma50",
		"bull.min_large_caps_above_ma50",
		"bear.min_below_ma200",
		"ma200_distance_pct",
		"biotech_breakout_pct",
	} {
		assert.Contains(t, err.Error(), field)
	}
}
