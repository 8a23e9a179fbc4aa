package calculator

import (
	"math"
	"testing"
	"time"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func payoffAt(t *testing.T, r DebtResult) int {
	t.Helper()
	if r.PayoffOccurrence == nil {
		t.Fatalf("%s: expected payoff occurrence, got nil", r.DebtName)
	}
	return *r.PayoffOccurrence
}

func TestSimulatePlan(t *testing.T) {
	tests := []struct {
		name         string
		debts        []Debt
		params       Params
		validateFunc func(t *testing.T, res Result)
	}{
		{
			name:   "zero APR pays off in balance / payment periods",
			debts:  []Debt{{ID: "car", Name: "Car", CurrentBalance: 1000, APR: 0}},
			params: Params{PaymentPerOccurrence: 100, Frequency: Monthly},
			validateFunc: func(t *testing.T, res Result) {
				if res.Occurrences() != 10 {
					t.Errorf("occurrences = %d, want 10", res.Occurrences())
				}
				if res.TotalInterestPaid != 0 {
					t.Errorf("interest = %v, want 0", res.TotalInterestPaid)
				}
				if res.RemainingBalance != 0 {
					t.Errorf("remaining = %v, want 0", res.RemainingBalance)
				}
				if got := payoffAt(t, res.Debts[0]); got != 10 {
					t.Errorf("payoff occurrence = %d, want 10", got)
				}
				want := testStart.AddDate(0, 0, 300)
				if res.PayoffDate == nil || !res.PayoffDate.Equal(want) {
					t.Errorf("payoff date = %v, want %v", res.PayoffDate, want)
				}
			},
		},
		{
			name:   "payment below first period interest returns sentinel",
			debts:  []Debt{{Name: "Card", CurrentBalance: 1000, APR: 24}},
			params: Params{PaymentPerOccurrence: 15, Frequency: Monthly},
			validateFunc: func(t *testing.T, res Result) {
				if !res.Insufficient() {
					t.Fatalf("occurrences = %v, want sentinel", res.TotalOccurrences)
				}
				if len(res.Debts) != 0 {
					t.Errorf("expected no per-debt results, got %d", len(res.Debts))
				}
				if res.TotalInterestPaid != 0 {
					t.Errorf("interest = %v, want 0", res.TotalInterestPaid)
				}
				if res.PayoffDate != nil {
					t.Errorf("payoff date = %v, want nil", res.PayoffDate)
				}
			},
		},
		{
			// 30 days of daily-rate interest is 19.73, below a twelfth of the APR (20).
			name:   "sentinel uses the 30 day period interest",
			debts:  []Debt{{Name: "Card", CurrentBalance: 1000, APR: 24}},
			params: Params{PaymentPerOccurrence: 19.8, Frequency: Monthly},
			validateFunc: func(t *testing.T, res Result) {
				if res.Insufficient() {
					t.Fatal("19.8 covers the first period's interest and must not be rejected")
				}
				if res.Occurrences() != 287 {
					t.Errorf("occurrences = %d, want 287", res.Occurrences())
				}
			},
		},
		{
			name:   "payment barely above interest converges slowly",
			debts:  []Debt{{Name: "Card", CurrentBalance: 1000, APR: 24}},
			params: Params{PaymentPerOccurrence: 19.73, Frequency: Monthly},
			validateFunc: func(t *testing.T, res Result) {
				if res.Occurrences() != 436 {
					t.Errorf("occurrences = %d, want 436", res.Occurrences())
				}
				if res.DidNotConverge {
					t.Error("expected plan to converge")
				}
			},
		},
		{
			name:   "occurrences per period multiply the payment",
			debts:  []Debt{{Name: "Loan", CurrentBalance: 1000}},
			params: Params{PaymentPerOccurrence: 50, OccurrencesPerPeriod: 2, Frequency: Monthly},
			validateFunc: func(t *testing.T, res Result) {
				if res.Occurrences() != 10 {
					t.Errorf("occurrences = %d, want 10", res.Occurrences())
				}
			},
		},
		{
			name:   "weekly frequency advances seven days per period",
			debts:  []Debt{{Name: "Loan", CurrentBalance: 700}},
			params: Params{PaymentPerOccurrence: 100, Frequency: Weekly},
			validateFunc: func(t *testing.T, res Result) {
				if res.Occurrences() != 7 {
					t.Errorf("occurrences = %d, want 7", res.Occurrences())
				}
				want := testStart.AddDate(0, 0, 49)
				if !res.PayoffDate.Equal(want) {
					t.Errorf("payoff date = %v, want %v", res.PayoffDate, want)
				}
			},
		},
		{
			name:   "non-positive payment is a no-op",
			debts:  []Debt{{Name: "Loan", CurrentBalance: 1000, APR: 10}},
			params: Params{PaymentPerOccurrence: 0, Frequency: Monthly},
			validateFunc: func(t *testing.T, res Result) {
				if res.TotalOccurrences != nil {
					t.Errorf("occurrences = %v, want nil", *res.TotalOccurrences)
				}
				if res.RemainingBalance != 1000 {
					t.Errorf("remaining = %v, want 1000", res.RemainingBalance)
				}
			},
		},
		{
			name:   "no debts produces an empty result",
			debts:  nil,
			params: Params{PaymentPerOccurrence: 100},
			validateFunc: func(t *testing.T, res Result) {
				if res.TotalOccurrences != nil || len(res.Debts) != 0 || res.RemainingBalance != 0 {
					t.Errorf("expected empty result, got %+v", res)
				}
			},
		},
		{
			name:   "iteration cap stops runaway plans",
			debts:  []Debt{{Name: "Huge", CurrentBalance: 1e9}},
			params: Params{PaymentPerOccurrence: 1, Frequency: Daily},
			validateFunc: func(t *testing.T, res Result) {
				if res.Occurrences() != 18250 {
					t.Errorf("occurrences = %d, want 18250", res.Occurrences())
				}
				if res.MaxOccurrences != 18250 {
					t.Errorf("max occurrences = %d, want 18250", res.MaxOccurrences)
				}
				if !res.DidNotConverge {
					t.Error("expected DidNotConverge")
				}
				if res.Debts[0].PayoffOccurrence != nil {
					t.Error("expected no payoff occurrence")
				}
			},
		},
		{
			name:   "interest paid matches total paid over starting balance",
			debts:  []Debt{{Name: "Card", CurrentBalance: 5000, APR: 18}},
			params: Params{PaymentPerOccurrence: 250, Frequency: Monthly},
			validateFunc: func(t *testing.T, res Result) {
				if res.Occurrences() != 24 {
					t.Errorf("occurrences = %d, want 24", res.Occurrences())
				}
				if math.Abs(res.TotalInterestPaid-972.16) > 0.01 {
					t.Errorf("interest = %v, want ~972.16", res.TotalInterestPaid)
				}
				if math.Abs(res.TotalPaid-(res.StartingBalance+res.TotalInterestPaid)) > 1e-9 {
					t.Errorf("total paid = %v, want starting + interest", res.TotalPaid)
				}
				if math.Abs(res.Debts[0].TotalPaid-res.TotalPaid) > BalanceTolerance {
					t.Errorf("debt paid %v does not match total %v", res.Debts[0].TotalPaid, res.TotalPaid)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.Start = testStart
			res := SimulatePlan(tt.debts, tt.params)
			tt.validateFunc(t, res)
		})
	}
}

func TestSimulatePlan_StrategyOrdering(t *testing.T) {
	// A is smaller, B carries the higher rate, so the strategies disagree.
	debts := []Debt{
		{ID: "a", Name: "A", CurrentBalance: 300, APR: 5},
		{ID: "b", Name: "B", CurrentBalance: 1000, APR: 25},
	}

	t.Run("snowball retires the smaller balance first", func(t *testing.T) {
		res := SimulatePlan(debts, Params{Strategy: Snowball, PaymentPerOccurrence: 200, Frequency: Monthly, Start: testStart})
		a, b := payoffAt(t, res.Debts[0]), payoffAt(t, res.Debts[1])
		if a != 2 || b != 8 {
			t.Errorf("payoff A=%d B=%d, want A=2 B=8", a, b)
		}
		if math.Abs(res.TotalInterestPaid-102.23) > 0.01 {
			t.Errorf("interest = %v, want ~102.23", res.TotalInterestPaid)
		}
	})

	t.Run("avalanche retires the higher rate first", func(t *testing.T) {
		res := SimulatePlan(debts, Params{Strategy: Avalanche, PaymentPerOccurrence: 200, Frequency: Monthly, Start: testStart})
		a, b := payoffAt(t, res.Debts[0]), payoffAt(t, res.Debts[1])
		if a != 7 || b != 6 {
			t.Errorf("payoff A=%d B=%d, want A=7 B=6", a, b)
		}
		if math.Abs(res.TotalInterestPaid-74.63) > 0.01 {
			t.Errorf("interest = %v, want ~74.63", res.TotalInterestPaid)
		}
	})

	t.Run("proportional keeps input order", func(t *testing.T) {
		res := SimulatePlan(debts, Params{Strategy: Proportional, PaymentPerOccurrence: 200, Frequency: Monthly, Start: testStart})
		if a := payoffAt(t, res.Debts[0]); a != 2 {
			t.Errorf("payoff A=%d, want 2", a)
		}
	})

	t.Run("results stay in input order", func(t *testing.T) {
		res := SimulatePlan(debts, Params{Strategy: Avalanche, PaymentPerOccurrence: 200, Frequency: Monthly, Start: testStart})
		if res.Debts[0].DebtID != "a" || res.Debts[1].DebtID != "b" {
			t.Errorf("unexpected result order: %s, %s", res.Debts[0].DebtID, res.Debts[1].DebtID)
		}
	})
}

func TestSimulatePlan_Schedule(t *testing.T) {
	debts := []Debt{
		{Name: "Student", CurrentBalance: 2000, APR: 10},
		{Name: "Card", CurrentBalance: 500, APR: 30},
		{Name: "Family", CurrentBalance: 800, APR: 0},
	}
	res := SimulatePlan(debts, Params{
		Strategy:             Snowball,
		PaymentPerOccurrence: 150,
		Frequency:            BiWeekly,
		Start:                testStart,
		RecordSchedule:       true,
	})

	if len(res.Schedule) != res.Occurrences() {
		t.Fatalf("schedule has %d periods, want %d", len(res.Schedule), res.Occurrences())
	}
	if res.Occurrences() != 23 {
		t.Errorf("occurrences = %d, want 23", res.Occurrences())
	}

	prevRemaining := res.StartingBalance
	prev := []float64{2000, 500, 800}
	for _, p := range res.Schedule {
		if p.RemainingBalance > prevRemaining {
			t.Errorf("occurrence %d: remaining rose from %v to %v", p.Occurrence, prevRemaining, p.RemainingBalance)
		}
		for i, bal := range p.Balances {
			if bal < 0 {
				t.Errorf("occurrence %d: debt %d negative balance %v", p.Occurrence, i, bal)
			}
			interest := periodInterest(prev[i], debts[i].APR, BiWeekly.Days())
			if bal > prev[i]+interest+1e-9 {
				t.Errorf("occurrence %d: debt %d grew beyond interest", p.Occurrence, i)
			}
		}
		prevRemaining = p.RemainingBalance
		prev = p.Balances
	}

	last := res.Schedule[len(res.Schedule)-1]
	if last.RemainingBalance != 0 || res.RemainingBalance != 0 {
		t.Errorf("expected zero balance at the end, got %v", last.RemainingBalance)
	}
	if got := payoffAt(t, res.Debts[1]); got != 4 {
		t.Errorf("card payoff = %d, want 4", got)
	}
}

func TestSimulatePlan_PayoffOccurrenceSetOnce(t *testing.T) {
	// An already-zero debt is stamped at the first occurrence and keeps it.
	debts := []Debt{
		{Name: "Done", CurrentBalance: 0, APR: 12},
		{Name: "Open", CurrentBalance: 120, APR: 0},
	}
	res := SimulatePlan(debts, Params{PaymentPerOccurrence: 40, Frequency: Monthly, Start: testStart})
	if got := payoffAt(t, res.Debts[0]); got != 1 {
		t.Errorf("already-zero payoff = %d, want 1", got)
	}
	if got := payoffAt(t, res.Debts[1]); got != 3 {
		t.Errorf("payoff = %d, want 3", got)
	}
}

func TestPayoffOccurrence_ZeroStartMatchesAcrossModes(t *testing.T) {
	debts := []Debt{
		{Name: "Done", CurrentBalance: 0, APR: 12},
		{Name: "Open", CurrentBalance: 500, APR: 10},
	}
	plan := SimulatePlan(debts, Params{PaymentPerOccurrence: 100, Frequency: Monthly, Start: testStart})
	immediate := SimulateImmediate(debts, Avalanche, 100, testStart)

	for name, res := range map[string]Result{"plan": plan, "immediate": immediate} {
		if got := payoffAt(t, res.Debts[0]); got != 1 {
			t.Errorf("%s: already-zero payoff = %d, want 1", name, got)
		}
	}
	if immediate.Debts[1].PayoffOccurrence != nil {
		t.Errorf("immediate: partially paid debt should have no payoff, got %d", *immediate.Debts[1].PayoffOccurrence)
	}
}

func TestSimulateImmediate(t *testing.T) {
	debts := []Debt{
		{ID: "a", Name: "A", CurrentBalance: 100, APR: 5},
		{ID: "b", Name: "B", CurrentBalance: 200, APR: 20},
	}

	tests := []struct {
		name         string
		strategy     Strategy
		lumpSum      float64
		validateFunc func(t *testing.T, res Result)
	}{
		{
			name:     "snowball retires A and partially pays B",
			strategy: Snowball,
			lumpSum:  150,
			validateFunc: func(t *testing.T, res Result) {
				if res.Debts[0].FinalBalance != 0 {
					t.Errorf("A final = %v, want 0", res.Debts[0].FinalBalance)
				}
				if res.Debts[1].FinalBalance != 150 {
					t.Errorf("B final = %v, want 150", res.Debts[1].FinalBalance)
				}
				if res.RemainingBalance != 150 {
					t.Errorf("remaining = %v, want 150", res.RemainingBalance)
				}
				if got := payoffAt(t, res.Debts[0]); got != 1 {
					t.Errorf("A payoff = %d, want 1", got)
				}
				if res.Debts[1].PayoffOccurrence != nil {
					t.Error("B should not be paid off")
				}
			},
		},
		{
			name:     "avalanche pays the higher rate first",
			strategy: Avalanche,
			lumpSum:  150,
			validateFunc: func(t *testing.T, res Result) {
				if res.Debts[0].FinalBalance != 100 || res.Debts[0].TotalPaid != 0 {
					t.Errorf("A should be untouched, got %+v", res.Debts[0])
				}
				if res.Debts[1].FinalBalance != 50 {
					t.Errorf("B final = %v, want 50", res.Debts[1].FinalBalance)
				}
				if res.TotalPaid != 150 {
					t.Errorf("total paid = %v, want 150", res.TotalPaid)
				}
			},
		},
		{
			name:     "lump sum larger than all debts leaves change",
			strategy: Proportional,
			lumpSum:  500,
			validateFunc: func(t *testing.T, res Result) {
				if res.RemainingBalance != 0 {
					t.Errorf("remaining = %v, want 0", res.RemainingBalance)
				}
				if res.TotalPaid != 300 {
					t.Errorf("total paid = %v, want 300", res.TotalPaid)
				}
				for _, d := range res.Debts {
					if got := payoffAt(t, d); got != 1 {
						t.Errorf("%s payoff = %d, want 1", d.DebtName, got)
					}
					if d.InterestPaid != 0 {
						t.Errorf("%s interest = %v, want 0", d.DebtName, d.InterestPaid)
					}
				}
			},
		},
		{
			name:     "zero lump sum is a no-op",
			strategy: Snowball,
			lumpSum:  0,
			validateFunc: func(t *testing.T, res Result) {
				if res.TotalOccurrences != nil {
					t.Error("expected nil occurrences")
				}
				if res.RemainingBalance != 300 {
					t.Errorf("remaining = %v, want 300", res.RemainingBalance)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := SimulateImmediate(debts, tt.strategy, tt.lumpSum, testStart)
			if tt.lumpSum > 0 {
				if res.Occurrences() != 1 {
					t.Errorf("occurrences = %d, want 1", res.Occurrences())
				}
				if res.PayoffDate == nil || !res.PayoffDate.Equal(testStart) {
					t.Errorf("payoff date = %v, want %v", res.PayoffDate, testStart)
				}
			}
			tt.validateFunc(t, res)
		})
	}
}

func TestSimulate_DispatchesOnMode(t *testing.T) {
	debts := []Debt{{Name: "A", CurrentBalance: 100, APR: 12}}

	immediate := Simulate(debts, Params{Mode: ModeImmediate, PaymentPerOccurrence: 40, Start: testStart})
	if immediate.Debts[0].FinalBalance != 60 || immediate.TotalInterestPaid != 0 {
		t.Errorf("immediate mode accrued interest or misallocated: %+v", immediate.Debts[0])
	}

	plan := Simulate(debts, Params{Mode: ModePlan, PaymentPerOccurrence: 40, Frequency: Monthly, Start: testStart})
	if plan.Occurrences() != 3 || plan.TotalInterestPaid <= 0 {
		t.Errorf("plan mode = %d occurrences, %v interest", plan.Occurrences(), plan.TotalInterestPaid)
	}
}

func TestOrder_TiesKeepInputOrder(t *testing.T) {
	ws := newWorkingSet([]Debt{
		{CurrentBalance: 500, APR: 10},
		{CurrentBalance: 200, APR: 20},
		{CurrentBalance: 200, APR: 10},
		{CurrentBalance: 0, APR: 99},
	})

	tests := []struct {
		strategy Strategy
		want     []int
	}{
		{Avalanche, []int{1, 0, 2}},
		{Snowball, []int{1, 2, 0}},
		{Proportional, []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			got := order(ws, tt.strategy)
			if len(got) != len(tt.want) {
				t.Fatalf("order = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("order = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFrequency(t *testing.T) {
	tests := []struct {
		freq     Frequency
		days     int
		maxOccur int
	}{
		{Daily, 1, 18250},
		{Weekly, 7, 2607},
		{BiWeekly, 14, 1303},
		{Monthly, 30, 608},
		{"", 30, 608},
	}
	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			if got := tt.freq.Days(); got != tt.days {
				t.Errorf("Days() = %d, want %d", got, tt.days)
			}
			if got := tt.freq.MaxOccurrences(); got != tt.maxOccur {
				t.Errorf("MaxOccurrences() = %d, want %d", got, tt.maxOccur)
			}
		})
	}
}
