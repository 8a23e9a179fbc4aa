package api

import "time"

// SimulationParams mirrors calculator.Params on the wire.
type SimulationParams struct {
	// Mode is "plan" (default) or "immediate".
	Mode string `json:"mode,omitempty"`
	// Strategy is "avalanche", "snowball" or "proportional".
	Strategy string `json:"strategy"`
	// PaymentPerOccurrence is the recurring payment, or the lump sum in
	// immediate mode.
	PaymentPerOccurrence float64 `json:"paymentPerOccurrence"`
	OccurrencesPerPeriod int     `json:"occurrencesPerPeriod,omitempty"`
	// Frequency is "daily", "weekly", "biweekly" or "monthly" (default).
	Frequency       string `json:"frequency,omitempty"`
	IncludeSchedule bool   `json:"includeSchedule,omitempty"`
}

// DebtSelector picks which of the caller's debts take part in a run.
// Empty DebtIDs selects every debt, optionally narrowed by Currency.
type DebtSelector struct {
	DebtIDs  []string `json:"debtIds,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

type SimulateRequest struct {
	DebtSelector
	Params SimulationParams `json:"params"`
}

type SimulateResponse struct {
	Result *SimulationResult `json:"result"`
	// Cached is true when the result was served from the cache.
	Cached bool `json:"cached"`
}

type CompareRequest struct {
	DebtSelector
	// Params.Mode and Params.Strategy are ignored.
	Params SimulationParams `json:"params"`
}

type CompareResponse struct {
	Outcomes []*StrategyOutcome `json:"outcomes"`
	// Recommended is empty when no strategy pays the debts off.
	Recommended      string  `json:"recommended,omitempty"`
	InterestSaved    float64 `json:"interestSaved"`
	OccurrencesSaved int     `json:"occurrencesSaved"`
}

type StrategyOutcome struct {
	Strategy string            `json:"strategy"`
	Result   *SimulationResult `json:"result"`
}

// ApplyLumpSumRequest pays Amount now across the selected debts.
type ApplyLumpSumRequest struct {
	DebtSelector
	Strategy string  `json:"strategy"`
	Amount   float64 `json:"amount"`
	Note     string  `json:"note,omitempty"`
}

type ApplyLumpSumResponse struct {
	Result *SimulationResult `json:"result"`
	// Payments lists the ledger rows written, one per debt that received money.
	Payments []*Payment `json:"payments"`
	// Debts holds the updated records of the paid debts.
	Debts []*Debt `json:"debts"`
}

type ListPaymentsRequest struct {
	DebtID string `json:"debtId"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

// SimulationResult is a simulation outcome with amounts rounded to cents.
type SimulationResult struct {
	// TotalOccurrences is null when nothing was simulated and -1 when the
	// payment cannot cover interest.
	TotalOccurrences  *int          `json:"totalOccurrences"`
	TotalInterestPaid float64       `json:"totalInterestPaid"`
	TotalPaid         float64       `json:"totalPaid"`
	StartingBalance   float64       `json:"startingBalance"`
	RemainingBalance  float64       `json:"remainingBalance"`
	PayoffDate        *time.Time    `json:"payoffDate,omitempty"`
	MaxOccurrences    int           `json:"maxOccurrences,omitempty"`
	DidNotConverge    bool          `json:"didNotConverge"`
	Currency          string        `json:"currency,omitempty"`
	Debts             []*DebtResult `json:"debts"`
	Schedule          []*Period     `json:"schedule,omitempty"`
}

type DebtResult struct {
	DebtID           string  `json:"debtId"`
	DebtName         string  `json:"debtName"`
	OriginalBalance  float64 `json:"originalBalance"`
	FinalBalance     float64 `json:"finalBalance"`
	InterestPaid     float64 `json:"interestPaid"`
	TotalPaid        float64 `json:"totalPaid"`
	PayoffOccurrence *int    `json:"payoffOccurrence"`
	DisplayColor     string  `json:"displayColor,omitempty"`
}

type Period struct {
	Occurrence       int       `json:"occurrence"`
	Date             time.Time `json:"date"`
	Interest         float64   `json:"interest"`
	Paid             float64   `json:"paid"`
	RemainingBalance float64   `json:"remainingBalance"`
	// Balances follows the order of SimulationResult.Debts.
	Balances []float64 `json:"balances"`
}

type Payment struct {
	ID           string  `json:"id"`
	DebtID       string  `json:"debtId"`
	Amount       float64 `json:"amount"`
	BalanceAfter float64 `json:"balanceAfter"`
	CreatedAt    int64   `json:"createdAt"`
	CreatedBy    string  `json:"createdBy"`
	Note         string  `json:"note,omitempty"`
}
