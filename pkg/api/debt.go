package api

type Debt struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Balance   float64 `json:"balance"`
	APR       float64 `json:"apr"`
	Currency  string  `json:"currency"`
	Color     string  `json:"color,omitempty"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}

type CreateDebtRequest struct {
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
	// APR is a percentage, e.g. 19.99.
	APR      float64 `json:"apr"`
	Currency string  `json:"currency,omitempty"`
	Color    string  `json:"color,omitempty"`
}

type CreateDebtResponse struct {
	Debt *Debt `json:"debt"`
}

type GetDebtRequest struct {
	DebtID string `json:"debtId"`
}

type GetDebtResponse struct {
	Debt *Debt `json:"debt"`
}

type ListDebtsRequest struct {
	// Currency, when set, narrows the list to one currency.
	Currency string `json:"currency,omitempty"`
}

type ListDebtsResponse struct {
	Debts []*Debt `json:"debts"`
	// TotalBalance is only set when every listed debt shares a currency.
	TotalBalance float64 `json:"totalBalance,omitempty"`
}

type UpdateDebtRequest struct {
	DebtID   string  `json:"debtId"`
	Name     string  `json:"name"`
	Balance  float64 `json:"balance"`
	APR      float64 `json:"apr"`
	Currency string  `json:"currency,omitempty"`
	Color    string  `json:"color,omitempty"`
}

type UpdateDebtResponse struct {
	Debt *Debt `json:"debt"`
}

type DeleteDebtRequest struct {
	DebtID string `json:"debtId"`
}

type DeleteDebtResponse struct{}
