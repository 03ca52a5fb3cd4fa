package regime

import (
	"fmt"
	"sort"
)

// FormatReport creates a human-readable breakdown of an evaluation
func FormatReport(ev *Evaluation) string {
	if ev == nil {
		return "No regime evaluation available"
	}

	output := "\n===== MARKET REGIME =====\n"
	output += fmt.Sprintf("As of: %s\n", ev.AsOf)
	output += fmt.Sprintf("Regime: %s\n", ev.Regime.Label())
	if len(ev.Qualified) > 1 {
		output += fmt.Sprintf("Also qualified: %v\n", codeStrings(ev.Qualified[1:]))
	}

	output += "\nMarket context:\n"
	output += fmt.Sprintf("- VIX: %s\n", ev.Market.VIX)
	output += fmt.Sprintf("- Put/call ratio: %s\n", ev.Market.PutCallRatio)
	output += fmt.Sprintf("- High-low index: %s\n", ev.Market.HighLowIndex)
	output += fmt.Sprintf("- A/D trend: %s\n", ev.Market.AdvanceDecline)

	for _, r := range ev.Results {
		status := "not qualified"
		if r.Qualified {
			status = "QUALIFIED"
		}
		output += fmt.Sprintf("\n%s: %s\n", r.Regime.Label(), status)

		for _, c := range r.Essential {
			output += fmt.Sprintf("  [%s] %s%s\n", mark(c.Passed), c.Name, countSuffix(r.Details[c.Name]))
		}
		for _, s := range r.Additional {
			switch {
			case !s.Present:
				output += fmt.Sprintf("  [ ] %s (n/a)\n", s.Name)
			default:
				output += fmt.Sprintf("  [%s] %s\n", mark(s.Score >= 1), s.Name)
			}
		}
		if r.SoftGate {
			output += fmt.Sprintf("  additional ratio %.2f (needs %.2f)\n", r.AdditionalRatio, r.Threshold)
		} else {
			output += fmt.Sprintf("  additional ratio %.2f (informational)\n", r.AdditionalRatio)
		}
		if placeholders := placeholderNames(r); len(placeholders) > 0 {
			output += fmt.Sprintf("  placeholder checks: %v\n", placeholders)
		}
	}

	return output
}

func mark(ok bool) string {
	if ok {
		return "x"
	}
	return " "
}

func countSuffix(detail interface{}) string {
	d, ok := detail.(CountDetail)
	if !ok {
		return ""
	}
	return fmt.Sprintf(" (%d/%d)", d.Count, d.Required)
}

func placeholderNames(r ConditionResult) []string {
	var names []string
	for name, d := range r.Details {
		if m, ok := d.(map[string]interface{}); ok && m["placeholder"] == true {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
