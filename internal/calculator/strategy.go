package calculator

import "sort"

// order returns the indexes of the active working debts (balance > 0) in the
// order the strategy pays them. Ties keep input order.
func order(ws []workingDebt, strategy Strategy) []int {
	idx := make([]int, 0, len(ws))
	for i := range ws {
		if ws[i].balance > 0 {
			idx = append(idx, i)
		}
	}

	switch strategy {
	case Avalanche:
		sort.SliceStable(idx, func(a, b int) bool {
			return ws[idx[a]].apr > ws[idx[b]].apr
		})
	case Snowball:
		sort.SliceStable(idx, func(a, b int) bool {
			return ws[idx[a]].balance < ws[idx[b]].balance
		})
	default:
		// Proportional is sequential in input order; no pro-rata split.
	}
	return idx
}

// allocate pays amount into the active debts in strategy order and returns
// what was actually paid. Debts that drop to the tolerance are snapped to
// zero and stamped with occurrence the first time.
func allocate(ws []workingDebt, strategy Strategy, amount float64, occurrence int) float64 {
	remaining := amount
	for _, i := range order(ws, strategy) {
		if remaining <= 0 {
			break
		}
		w := &ws[i]
		pay := remaining
		if pay > w.balance {
			pay = w.balance
		}
		w.balance -= pay
		w.totalPaid += pay
		remaining -= pay

		if w.balance <= BalanceTolerance && w.payoffOccurrence == nil {
			w.balance = 0
			w.payoffOccurrence = intPtr(occurrence)
		}
	}
	return amount - remaining
}

// stampPaidOff records occurrence on every zero balance debt that has no
// payoff yet. Debts that started at zero are stamped by the first occurrence
// in both modes.
func stampPaidOff(ws []workingDebt, occurrence int) {
	for i := range ws {
		if ws[i].balance == 0 && ws[i].payoffOccurrence == nil {
			ws[i].payoffOccurrence = intPtr(occurrence)
		}
	}
}
