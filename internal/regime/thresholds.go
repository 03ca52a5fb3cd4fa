package regime

import (
	"errors"
	"fmt"
	"math"
)

// Sentiment holds the market-wide soft bands of one regime
type Sentiment struct {
	VIX     Band `yaml:"vix"`
	PutCall Band `yaml:"put_call"`
	HighLow Band `yaml:"high_low"`
	ADTrend Band `yaml:"ad_trend"`
}

// AggressiveBullThresholds configures the aggressive-bull rule table
type AggressiveBullThresholds struct {
	AdditionalThreshold   float64   `yaml:"additional_threshold"`
	MinAboveMA50          int       `yaml:"min_above_ma50"`
	MinExtendedAboveMA200 int       `yaml:"min_extended_above_ma200"`
	MinBiotechBreakout    int       `yaml:"min_biotech_breakout"`
	Sentiment             Sentiment `yaml:"sentiment"`
}

// BullThresholds configures the bull rule table. The large-cap pair is SPY and QQQ, the mid/small-cap pair is IWM and MDY.
type BullThresholds struct {
	AdditionalThreshold    float64   `yaml:"additional_threshold"`
	MinLargeCapsAboveMA50  int       `yaml:"min_large_caps_above_ma50"`
	MinMidSmallCapsLagging int       `yaml:"min_mid_small_caps_lagging"`
	MinBiotechNeutral      int       `yaml:"min_biotech_neutral"`
	BiotechNeutral         Band      `yaml:"biotech_neutral"`
	Sentiment              Sentiment `yaml:"sentiment"`
}

// CorrectionThresholds configures the correction rule table
type CorrectionThresholds struct {
	AdditionalThreshold float64   `yaml:"additional_threshold"`
	MinBelowMA50        int       `yaml:"min_below_ma50"`
	MinInDrawdownBand   int       `yaml:"min_in_drawdown_band"`
	MinPersistent       int       `yaml:"min_persistent"`
	Drawdown            Band      `yaml:"drawdown"`
	Sentiment           Sentiment `yaml:"sentiment"`
}

// RiskManagementThresholds configures the risk-management rule table
type RiskManagementThresholds struct {
	AdditionalThreshold float64   `yaml:"additional_threshold"`
	MinBelowMA200       int       `yaml:"min_below_ma200"`
	MinInDrawdownBand   int       `yaml:"min_in_drawdown_band"`
	Drawdown            Band      `yaml:"drawdown"`
	Sentiment           Sentiment `yaml:"sentiment"`
}

// BearThresholds configures the bear rule table. Its soft conditions are
// reported but never gate qualification.
type BearThresholds struct {
	MinBelowMA200 int       `yaml:"min_below_ma200"`
	MinInDrawdown int       `yaml:"min_in_drawdown"`
	MinPersistent int       `yaml:"min_persistent"`
	Drawdown      Band      `yaml:"drawdown"`
	Sentiment     Sentiment `yaml:"sentiment"`
}

// Thresholds is the full tunable configuration of the engine
type Thresholds struct {
	MA200DistancePct   float64 `yaml:"ma200_distance_pct"`
	CorrectionMinDays  int     `yaml:"correction_min_days"`
	BearTrendMinDays   int     `yaml:"bear_trend_min_days"`
	MomentumWindow     int     `yaml:"momentum_window"`
	DrawdownWindow     int     `yaml:"drawdown_window"`
	BiotechBreakoutPct float64 `yaml:"biotech_breakout_pct"`

	AggressiveBull AggressiveBullThresholds `yaml:"aggressive_bull"`
	Bull           BullThresholds           `yaml:"bull"`
	Correction     CorrectionThresholds     `yaml:"correction"`
	RiskManagement RiskManagementThresholds `yaml:"risk_management"`
	Bear           BearThresholds           `yaml:"bear"`
}

// ErrInvalidThresholds is returned by Validate
var ErrInvalidThresholds = errors.New("invalid thresholds")

// DefaultThresholds returns the production calibration
func DefaultThresholds() Thresholds {
	return Thresholds{
		MA200DistancePct:   5.0,
		CorrectionMinDays:  3,
		BearTrendMinDays:   5,
		MomentumWindow:     22,
		DrawdownWindow:     60,
		BiotechBreakoutPct: 3.0,

		AggressiveBull: AggressiveBullThresholds{
			AdditionalThreshold:   0.70,
			MinAboveMA50:          4,
			MinExtendedAboveMA200: 4,
			MinBiotechBreakout:    1,
			Sentiment: Sentiment{
				VIX:     AtMost(20),
				PutCall: AtMost(0.80),
				HighLow: AtLeast(70),
				ADTrend: AtLeast(0.20),
			},
		},
		Bull: BullThresholds{
			AdditionalThreshold:    0.60,
			MinLargeCapsAboveMA50:  2,
			MinMidSmallCapsLagging: 1,
			MinBiotechNeutral:      1,
			BiotechNeutral:         Between(0, 3),
			Sentiment: Sentiment{
				VIX:     AtMost(25),
				PutCall: Between(0.70, 1.00),
				HighLow: AtLeast(50),
				ADTrend: AtLeast(0),
			},
		},
		Correction: CorrectionThresholds{
			AdditionalThreshold: 0.60,
			MinBelowMA50:        2,
			MinInDrawdownBand:   2,
			MinPersistent:       2,
			Drawdown:            Between(-15, -5),
			Sentiment: Sentiment{
				VIX:     Between(20, 30),
				PutCall: AtLeast(1.00),
				HighLow: AtMost(50),
				ADTrend: AtMost(0),
			},
		},
		RiskManagement: RiskManagementThresholds{
			AdditionalThreshold: 0.50,
			MinBelowMA200:       3,
			MinInDrawdownBand:   2,
			Drawdown:            Between(-25, -15),
			Sentiment: Sentiment{
				VIX:     AtLeast(25),
				PutCall: AtLeast(1.10),
				HighLow: AtMost(30),
				ADTrend: AtMost(-0.20),
			},
		},
		Bear: BearThresholds{
			MinBelowMA200: 4,
			MinInDrawdown: 3,
			MinPersistent: 3,
			Drawdown:      AtMost(-25),
			Sentiment: Sentiment{
				VIX:     AtLeast(30),
				PutCall: AtLeast(1.20),
				HighLow: AtMost(20),
				ADTrend: AtMost(-0.30),
			},
		},
	}
}

// Validate checks ratios, counts, windows and bands
func (t Thresholds) Validate() error {
	var errs []error

	ratio := func(name string, v float64) {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %g", name, v))
		}
	}
	countOf := func(name string, v, n int) {
		if v < 1 || v > n {
			errs = append(errs, fmt.Errorf("%s must be within [1, %d], got %d", name, n, v))
		}
	}
	count := func(name string, v int) { countOf(name, v, 4) }
	finite := func(name string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s must be a finite number, got %g", name, v))
		}
	}
	positive := func(name string, v int) {
		if v < 1 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	band := func(name string, b Band) {
		if !b.Valid() {
			errs = append(errs, fmt.Errorf("%s has min above max: %s", name, b))
		}
	}
	sentiment := func(prefix string, s Sentiment) {
		band(prefix+".vix", s.VIX)
		band(prefix+".put_call", s.PutCall)
		band(prefix+".high_low", s.HighLow)
		band(prefix+".ad_trend", s.ADTrend)
	}

	if t.MomentumWindow < 2 {
		errs = append(errs, fmt.Errorf("momentum_window must be at least 2, got %d", t.MomentumWindow))
	}
	positive("drawdown_window", t.DrawdownWindow)
	finite("ma200_distance_pct", t.MA200DistancePct)
	finite("biotech_breakout_pct", t.BiotechBreakoutPct)
	positive("correction_min_days", t.CorrectionMinDays)
	positive("bear_trend_min_days", t.BearTrendMinDays)

	ratio("aggressive_bull.additional_threshold", t.AggressiveBull.AdditionalThreshold)
	count("aggressive_bull.min_above_ma50", t.AggressiveBull.MinAboveMA50)
	count("aggressive_bull.min_extended_above_ma200", t.AggressiveBull.MinExtendedAboveMA200)
	countOf("aggressive_bull.min_biotech_breakout", t.AggressiveBull.MinBiotechBreakout, 2)
	sentiment("aggressive_bull.sentiment", t.AggressiveBull.Sentiment)

	ratio("bull.additional_threshold", t.Bull.AdditionalThreshold)
	countOf("bull.min_large_caps_above_ma50", t.Bull.MinLargeCapsAboveMA50, 2)
	countOf("bull.min_mid_small_caps_lagging", t.Bull.MinMidSmallCapsLagging, 2)
	countOf("bull.min_biotech_neutral", t.Bull.MinBiotechNeutral, 2)
	band("bull.biotech_neutral", t.Bull.BiotechNeutral)
	sentiment("bull.sentiment", t.Bull.Sentiment)

	ratio("correction.additional_threshold", t.Correction.AdditionalThreshold)
	count("correction.min_below_ma50", t.Correction.MinBelowMA50)
	count("correction.min_in_drawdown_band", t.Correction.MinInDrawdownBand)
	count("correction.min_persistent", t.Correction.MinPersistent)
	band("correction.drawdown", t.Correction.Drawdown)
	sentiment("correction.sentiment", t.Correction.Sentiment)

	ratio("risk_management.additional_threshold", t.RiskManagement.AdditionalThreshold)
	count("risk_management.min_below_ma200", t.RiskManagement.MinBelowMA200)
	count("risk_management.min_in_drawdown_band", t.RiskManagement.MinInDrawdownBand)
	band("risk_management.drawdown", t.RiskManagement.Drawdown)
	sentiment("risk_management.sentiment", t.RiskManagement.Sentiment)

	count("bear.min_below_ma200", t.Bear.MinBelowMA200)
	count("bear.min_in_drawdown", t.Bear.MinInDrawdown)
	count("bear.min_persistent", t.Bear.MinPersistent)
	band("bear.drawdown", t.Bear.Drawdown)
	sentiment("bear.sentiment", t.Bear.Sentiment)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidThresholds, errors.Join(errs...))
	}
	return nil
}
