package models

// Payment records money applied to a debt outside a simulation.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// DebtID is the debt that received the payment.
	DebtID string

	// Amount is how much was applied.
	Amount float64

	// BalanceBefore is the balance the payment was computed from. It is not
	// stored; ApplyPayments only moves a balance that still holds it.
	BalanceBefore float64

	// BalanceAfter is the debt's balance once the payment landed.
	BalanceAfter float64

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded the payment.
	CreatedBy string

	// Note is an optional description (e.g., "Tax refund").
	Note string
}
