package regime

import "github.com/Alias1177/MarketRegime/models"

// DefaultEvaluators builds the five rule tables in priority order
func DefaultEvaluators(th Thresholds) []Evaluator {
	return []Evaluator{
		aggressiveBullRules(th),
		bullRules(th),
		correctionRules(th),
		riskManagementRules(th),
		bearRules(th),
	}
}

func aggressiveBullRules(th Thresholds) *ruleTable {
	main := models.MainIndices
	a := th.AggressiveBull
	return &ruleTable{
		code: AggressiveBull,
		essential: []check{
			countRule("main_above_ma50", main, a.MinAboveMA50, maDistance(models.MA50), above(0)),
			countRule("main_extended_above_ma200", main, a.MinExtendedAboveMA200, maDistance(models.MA200), atLeast(th.MA200DistancePct)),
			countRule("biotech_breakout", models.BiotechIndices, a.MinBiotechBreakout, returnOver(th.MomentumWindow), atLeast(th.BiotechBreakoutPct)),
		},
		additional: append(sentimentRules(a.Sentiment),
			outperformRule("small_caps_lead", models.IWM, models.SPY, th.MomentumWindow),
		),
		threshold: a.AdditionalThreshold,
		softGate:  true,
	}
}

func bullRules(th Thresholds) *ruleTable {
	b := th.Bull
	return &ruleTable{
		code: Bull,
		essential: []check{
			countRule("large_caps_above_ma50", []string{models.SPY, models.QQQ}, b.MinLargeCapsAboveMA50, maDistance(models.MA50), above(0)),
			countRule("mid_small_caps_lagging", []string{models.IWM, models.MDY}, b.MinMidSmallCapsLagging, maDistance(models.MA50), atMost(0)),
			countRule("biotech_neutral", models.BiotechIndices, b.MinBiotechNeutral, returnOver(th.MomentumWindow), within(b.BiotechNeutral)),
		},
		additional: append(sentimentRules(b.Sentiment),
			orderingRule("large_cap_leadership", []string{models.SPY, models.MDY, models.IWM}, th.MomentumWindow),
		),
		threshold: b.AdditionalThreshold,
		softGate:  true,
	}
}

func correctionRules(th Thresholds) *ruleTable {
	main := models.MainIndices
	c := th.Correction
	return &ruleTable{
		code: Correction,
		essential: []check{
			countRule("main_below_ma50", main, c.MinBelowMA50, maDistance(models.MA50), atMost(0)),
			countRule("main_in_correction_drawdown", main, c.MinInDrawdownBand, drawdownOver(th.DrawdownWindow), within(c.Drawdown)),
			countRule("main_persistent_below_ma50", main, c.MinPersistent, daysBelow(models.MA50), atLeast(float64(th.CorrectionMinDays))),
		},
		additional: append(sentimentRules(c.Sentiment),
			outperformRule("small_caps_lag", models.SPY, models.IWM, th.MomentumWindow),
		),
		threshold: c.AdditionalThreshold,
		softGate:  true,
	}
}

func riskManagementRules(th Thresholds) *ruleTable {
	main := models.MainIndices
	r := th.RiskManagement
	return &ruleTable{
		code: RiskManagement,
		essential: []check{
			countRule("main_below_ma200", main, r.MinBelowMA200, maDistance(models.MA200), atMost(0)),
			countRule("main_in_risk_drawdown", main, r.MinInDrawdownBand, drawdownOver(th.DrawdownWindow), within(r.Drawdown)),
			// TODO: derive from constituent data once per-stock series are ingested
			placeholderRule("individual_stock_correction"),
		},
		additional: sentimentRules(r.Sentiment),
		threshold:  r.AdditionalThreshold,
		softGate:   true,
	}
}

func bearRules(th Thresholds) *ruleTable {
	main := models.MainIndices
	b := th.Bear
	return &ruleTable{
		code: Bear,
		essential: []check{
			countRule("main_below_ma200", main, b.MinBelowMA200, maDistance(models.MA200), atMost(0)),
			countRule("main_in_bear_drawdown", main, b.MinInDrawdown, drawdownOver(th.DrawdownWindow), within(b.Drawdown)),
			countRule("main_persistent_below_ma200", main, b.MinPersistent, daysBelow(models.MA200), atLeast(float64(th.BearTrendMinDays))),
		},
		additional: sentimentRules(b.Sentiment),
		softGate:   false,
	}
}
