package regime

// Evaluator decides whether one regime describes the market
type Evaluator interface {
	Code() Code
	Evaluate(in *Input) (ConditionResult, error)
}

// CheckResult is the outcome of one essential condition
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// SignalResult is the outcome of one additional condition
type SignalResult struct {
	Name    string  `json:"name"`
	Present bool    `json:"present"`
	Score   float64 `json:"score"`
}

// ConditionResult is the full diagnostic record of one regime. Details never
// influence Qualified.
type ConditionResult struct {
	Regime          Code                   `json:"regime"`
	Essential       []CheckResult          `json:"essential"`
	Additional      []SignalResult         `json:"additional"`
	AdditionalRatio float64                `json:"additional_ratio"`
	Threshold       float64                `json:"threshold"`
	SoftGate        bool                   `json:"soft_gate"`
	Qualified       bool                   `json:"qualified"`
	Details         map[string]interface{} `json:"details"`
}

// EssentialMet reports whether every essential condition passed
func (r ConditionResult) EssentialMet() bool {
	for _, c := range r.Essential {
		if !c.Passed {
			return false
		}
	}
	return true
}

// ruleTable is a declarative regime definition evaluated by shared code
type ruleTable struct {
	code       Code
	essential  []check
	additional []soft
	threshold  float64
	softGate   bool
}

func (t *ruleTable) Code() Code {
	return t.code
}

func (t *ruleTable) Evaluate(in *Input) (ConditionResult, error) {
	res := ConditionResult{
		Regime:     t.code,
		Essential:  make([]CheckResult, 0, len(t.essential)),
		Additional: make([]SignalResult, 0, len(t.additional)),
		Threshold:  t.threshold,
		SoftGate:   t.softGate,
		Details:    make(map[string]interface{}, len(t.essential)+len(t.additional)),
	}

	for _, c := range t.essential {
		res.Essential = append(res.Essential, CheckResult{Name: c.name, Passed: c.eval(in, res.Details)})
	}

	var sum float64
	for _, s := range t.additional {
		sig := s.eval(in, res.Details)
		sum += sig.Value()
		res.Additional = append(res.Additional, SignalResult{Name: s.name, Present: sig.Present, Score: sig.Value()})
	}
	if len(t.additional) > 0 {
		res.AdditionalRatio = sum / float64(len(t.additional))
	}

	res.Qualified = res.EssentialMet() && (!t.softGate || res.AdditionalRatio >= t.threshold)
	return res, nil
}
