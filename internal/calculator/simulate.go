package calculator

import "time"

// Simulate runs the simulation selected by params.Mode. Unknown modes run a
// plan.
func Simulate(debts []Debt, params Params) Result {
	if params.Mode == ModeImmediate {
		return SimulateImmediate(debts, params.Strategy, params.PaymentPerOccurrence, params.start())
	}
	return SimulatePlan(debts, params)
}

// SimulateImmediate applies lumpSum to debts in strategy order as one
// instantaneous payment. No interest accrues.
func SimulateImmediate(debts []Debt, strategy Strategy, lumpSum float64, now time.Time) Result {
	if len(debts) == 0 {
		return Result{}
	}
	total := startingBalance(debts)
	if lumpSum <= 0 {
		return Result{StartingBalance: total, RemainingBalance: total}
	}

	ws := newWorkingSet(debts)
	paid := allocate(ws, strategy, lumpSum, 1)
	stampPaidOff(ws, 1)

	results, remaining := buildResults(debts, ws)
	return Result{
		TotalOccurrences: intPtr(1),
		TotalPaid:        paid,
		StartingBalance:  total,
		RemainingBalance: remaining,
		PayoffDate:       timePtr(now),
		Debts:            results,
	}
}

// SimulatePlan amortizes debts with a recurring payment until every balance
// is within BalanceTolerance or the 50 year cap for the frequency is reached.
//
// Each occurrence first accrues one period of simple daily-rate interest on
// every open balance, then pays the period payment in strategy order. The
// order is recomputed every period because balances move.
func SimulatePlan(debts []Debt, params Params) Result {
	if len(debts) == 0 {
		return Result{}
	}
	total := startingBalance(debts)
	if params.PaymentPerOccurrence <= 0 {
		return Result{StartingBalance: total, RemainingBalance: total}
	}

	days := params.Frequency.Days()
	payment := params.periodPayment()
	maxOccurrences := params.Frequency.MaxOccurrences()

	// Only the first period is checked. Shrinking balances can make a
	// rejected plan viable later; that case is still rejected.
	var minInterest float64
	for _, d := range debts {
		if d.CurrentBalance > 0 {
			minInterest += periodInterest(d.CurrentBalance, d.APR, days)
		}
	}
	if minInterest > 0 && payment <= minInterest {
		return Result{
			TotalOccurrences: intPtr(InsufficientPayment),
			StartingBalance:  total,
			RemainingBalance: total,
			MaxOccurrences:   maxOccurrences,
		}
	}

	ws := newWorkingSet(debts)
	date := params.start()
	var (
		occurrence    int
		totalInterest float64
		schedule      []Period
	)

	for occurrence < maxOccurrences && !settled(ws) {
		occurrence++
		date = date.AddDate(0, 0, days)

		var interest float64
		for i := range ws {
			w := &ws[i]
			if w.balance <= 0 {
				continue
			}
			accrued := periodInterest(w.balance, w.apr, days)
			w.balance += accrued
			w.interestAccrued += accrued
			interest += accrued
		}
		totalInterest += interest

		paid := allocate(ws, params.Strategy, payment, occurrence)
		stampPaidOff(ws, occurrence)

		if params.RecordSchedule {
			schedule = append(schedule, snapshot(ws, occurrence, date, interest, paid))
		}
	}

	results, remaining := buildResults(debts, ws)
	return Result{
		TotalOccurrences:  intPtr(occurrence),
		TotalInterestPaid: totalInterest,
		TotalPaid:         total + totalInterest,
		StartingBalance:   total,
		RemainingBalance:  remaining,
		PayoffDate:        timePtr(date),
		Debts:             results,
		MaxOccurrences:    maxOccurrences,
		DidNotConverge:    !settled(ws),
		Schedule:          schedule,
	}
}

// settled reports whether every balance is within tolerance.
func settled(ws []workingDebt) bool {
	for _, w := range ws {
		if w.balance > BalanceTolerance {
			return false
		}
	}
	return true
}

func snapshot(ws []workingDebt, occurrence int, date time.Time, interest, paid float64) Period {
	p := Period{
		Occurrence: occurrence,
		Date:       date,
		Interest:   interest,
		Paid:       paid,
		Balances:   make([]float64, len(ws)),
	}
	for i, w := range ws {
		p.Balances[i] = w.balance
		p.RemainingBalance += w.balance
	}
	return p
}
