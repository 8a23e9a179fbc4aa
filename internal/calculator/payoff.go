// Package calculator implements the debt payoff simulator.
//
// The simulator is a pure computation: given a set of debts and payment
// parameters it either allocates a single lump sum immediately or amortizes
// the debts period by period until they are paid off or a 50 year horizon is
// reached. It performs no I/O and holds no state between calls.
package calculator

import "time"

const (
	// InsufficientPayment is reported as TotalOccurrences when the period
	// payment cannot cover the first period's interest.
	InsufficientPayment = -1

	// BalanceTolerance is the floor below which a balance counts as paid off.
	BalanceTolerance = 0.01

	// horizonYears bounds every plan simulation.
	horizonYears = 50
	daysPerYear  = 365
)

// Mode selects between a recurring plan and a one-off payment.
type Mode string

const (
	ModePlan      Mode = "plan"
	ModeImmediate Mode = "immediate"
)

// Strategy decides which debt receives money first.
type Strategy string

const (
	Avalanche    Strategy = "avalanche"    // highest APR first
	Snowball     Strategy = "snowball"     // smallest balance first
	Proportional Strategy = "proportional" // input order
)

// Strategies lists every supported strategy in tie-break order.
var Strategies = []Strategy{Avalanche, Snowball, Proportional}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case Avalanche, Snowball, Proportional:
		return true
	}
	return false
}

// Frequency is the accrual period of a plan.
type Frequency string

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	BiWeekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

// Days returns the period length. Monthly is approximated as 30 days and
// unknown frequencies fall back to monthly.
func (f Frequency) Days() int {
	switch f {
	case Daily:
		return 1
	case Weekly:
		return 7
	case BiWeekly:
		return 14
	default:
		return 30
	}
}

// MaxOccurrences returns the iteration cap for the frequency.
func (f Frequency) MaxOccurrences() int {
	return horizonYears * daysPerYear / f.Days()
}

// Debt is a read-only simulation input.
type Debt struct {
	ID             string
	Name           string
	CurrentBalance float64
	// APR is a percentage, e.g. 24 for 24%.
	APR          float64
	Currency     string
	DisplayColor string
}

// Params configures a simulation run.
type Params struct {
	Mode     Mode
	Strategy Strategy

	// PaymentPerOccurrence is the recurring payment in plan mode and the
	// lump sum in immediate mode.
	PaymentPerOccurrence float64

	// OccurrencesPerPeriod multiplies the payment per accrual period.
	// Values below 1 are treated as 1.
	OccurrencesPerPeriod int

	Frequency Frequency

	// Start is the invocation time. Zero means time.Now().
	Start time.Time

	// RecordSchedule enables the per-occurrence Schedule on plan results.
	RecordSchedule bool
}

func (p Params) periodPayment() float64 {
	n := p.OccurrencesPerPeriod
	if n < 1 {
		n = 1
	}
	return p.PaymentPerOccurrence * float64(n)
}

func (p Params) start() time.Time {
	if p.Start.IsZero() {
		return time.Now()
	}
	return p.Start
}

// DebtResult is the outcome for one debt.
type DebtResult struct {
	DebtID          string
	DebtName        string
	OriginalBalance float64
	FinalBalance    float64
	InterestPaid    float64
	TotalPaid       float64
	// PayoffOccurrence is the 1-indexed occurrence at which the balance
	// first reached zero, nil if it never did.
	PayoffOccurrence *int
	DisplayColor     string
}

// Period is a snapshot taken after one occurrence of a plan.
type Period struct {
	Occurrence       int
	Date             time.Time
	Interest         float64
	Paid             float64
	RemainingBalance float64
	// Balances holds each debt's balance in input order.
	Balances []float64
}

// Result is the aggregate outcome of a simulation.
type Result struct {
	// TotalOccurrences is nil when nothing was simulated and
	// InsufficientPayment when the plan cannot amortize.
	TotalOccurrences  *int
	TotalInterestPaid float64
	// TotalPaid is StartingBalance + TotalInterestPaid.
	TotalPaid        float64
	StartingBalance  float64
	RemainingBalance float64
	PayoffDate       *time.Time
	Debts            []DebtResult

	// MaxOccurrences is the iteration cap that applied to a plan run.
	MaxOccurrences int
	// DidNotConverge is set when a plan hit the cap with balance left.
	DidNotConverge bool
	Schedule       []Period
}

// Insufficient reports whether the result is the interest-insufficiency sentinel.
func (r Result) Insufficient() bool {
	return r.TotalOccurrences != nil && *r.TotalOccurrences == InsufficientPayment
}

// Occurrences returns TotalOccurrences, or 0 when it is nil.
func (r Result) Occurrences() int {
	if r.TotalOccurrences == nil {
		return 0
	}
	return *r.TotalOccurrences
}

// workingDebt is the mutable per-run state of one input debt.
type workingDebt struct {
	index            int
	apr              float64
	balance          float64
	interestAccrued  float64
	totalPaid        float64
	payoffOccurrence *int
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func startingBalance(debts []Debt) float64 {
	var total float64
	for _, d := range debts {
		total += d.CurrentBalance
	}
	return total
}

func newWorkingSet(debts []Debt) []workingDebt {
	ws := make([]workingDebt, len(debts))
	for i, d := range debts {
		ws[i] = workingDebt{index: i, apr: d.APR, balance: d.CurrentBalance}
	}
	return ws
}

func periodInterest(balance, apr float64, days int) float64 {
	return balance * (apr / 100 / daysPerYear) * float64(days)
}

func buildResults(debts []Debt, ws []workingDebt) ([]DebtResult, float64) {
	results := make([]DebtResult, len(debts))
	var remaining float64
	for i, d := range debts {
		w := ws[i]
		results[i] = DebtResult{
			DebtID:           d.ID,
			DebtName:         d.Name,
			OriginalBalance:  d.CurrentBalance,
			FinalBalance:     w.balance,
			InterestPaid:     w.interestAccrued,
			TotalPaid:        w.totalPaid,
			PayoffOccurrence: w.payoffOccurrence,
			DisplayColor:     d.DisplayColor,
		}
		remaining += w.balance
	}
	return results, remaining
}
