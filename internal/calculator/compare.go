package calculator

// StrategyOutcome pairs a strategy with its plan result.
type StrategyOutcome struct {
	Strategy Strategy
	Result   Result
}

// Comparison holds one plan per strategy and the recommended one.
type Comparison struct {
	Outcomes []StrategyOutcome
	// Recommended is empty when no strategy produces a usable plan.
	Recommended Strategy
	// InterestSaved is how much less interest the recommended plan pays
	// than the most expensive usable plan.
	InterestSaved float64
	// OccurrencesSaved is the matching difference in occurrences.
	OccurrencesSaved int
}

// CompareStrategies runs SimulatePlan once per strategy with otherwise
// identical params. The mode in params is ignored.
//
// The recommendation is the converging plan with the least interest, then
// the fewest occurrences, then the first in Strategies order.
func CompareStrategies(debts []Debt, params Params) Comparison {
	var cmp Comparison
	var best, worst *Result

	for _, s := range Strategies {
		p := params
		p.Mode = ModePlan
		p.Strategy = s
		res := SimulatePlan(debts, p)
		cmp.Outcomes = append(cmp.Outcomes, StrategyOutcome{Strategy: s, Result: res})
	}

	for i := range cmp.Outcomes {
		o := &cmp.Outcomes[i]
		if !usable(o.Result) {
			continue
		}
		if best == nil || better(o.Result, *best) {
			best = &o.Result
			cmp.Recommended = o.Strategy
		}
		if worst == nil || better(*worst, o.Result) {
			worst = &o.Result
		}
	}

	if best != nil {
		cmp.InterestSaved = worst.TotalInterestPaid - best.TotalInterestPaid
		cmp.OccurrencesSaved = worst.Occurrences() - best.Occurrences()
	}
	return cmp
}

func usable(r Result) bool {
	return r.TotalOccurrences != nil && !r.Insufficient() && !r.DidNotConverge
}

// better reports whether a strictly beats b. Interest within a cent is a tie.
func better(a, b Result) bool {
	diff := a.TotalInterestPaid - b.TotalInterestPaid
	if diff < -BalanceTolerance {
		return true
	}
	if diff > BalanceTolerance {
		return false
	}
	return a.Occurrences() < b.Occurrences()
}
