package models

import "github.com/mmynk/debtwise/internal/calculator"

// DefaultCurrency is used when a debt is created without one.
const DefaultCurrency = "USD"

// Debt represents a balance a user owes.
type Debt struct {
	// ID is the unique identifier for the debt (UUID format).
	ID string

	// OwnerID is the user who owns this debt.
	OwnerID string

	// Name is the display label (e.g., "Visa", "Car loan").
	Name string

	// Balance is the current outstanding amount.
	Balance float64

	// APR is the annual percentage rate, e.g. 19.99. Zero means interest-free.
	APR float64

	// Currency is an ISO 4217 code. All debts in one simulation share it.
	Currency string

	// Color is a cosmetic hint for clients (e.g., "#ff8800").
	Color string

	// CreatedAt is the Unix timestamp when the debt was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change.
	UpdatedAt int64
}

// SimulationInput converts the record into a calculator input.
func (d *Debt) SimulationInput() calculator.Debt {
	return calculator.Debt{
		ID:             d.ID,
		Name:           d.Name,
		CurrentBalance: d.Balance,
		APR:            d.APR,
		Currency:       d.Currency,
		DisplayColor:   d.Color,
	}
}
