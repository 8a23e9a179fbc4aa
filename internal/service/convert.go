package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtwise/internal/calculator"
	"github.com/mmynk/debtwise/internal/middleware"
	"github.com/mmynk/debtwise/internal/models"
	"github.com/mmynk/debtwise/internal/money"
	"github.com/mmynk/debtwise/internal/storage"
	"github.com/mmynk/debtwise/pkg/api"
)

var errAuthRequired = errors.New("authentication required")

func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}
	return userID, nil
}

// storeError maps a storage failure onto a Connect error.
func storeError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	if errors.Is(err, storage.ErrConflict) {
		slog.Warn(op+" conflicted", "error", err)
		return connect.NewError(connect.CodeAborted, err)
	}
	slog.Error(op+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, fmt.Errorf("failed to %s", strings.ToLower(op)))
}

// ownedDebt loads a debt and hides debts owned by someone else.
func ownedDebt(ctx context.Context, store storage.DebtStore, userID, debtID string) (*models.Debt, error) {
	if debtID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("debtId is required"))
	}
	debt, err := store.GetDebt(ctx, debtID)
	if err != nil {
		return nil, storeError("GetDebt", err)
	}
	if debt.OwnerID != userID {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound))
	}
	return debt, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// normalizeCurrency upper-cases a code and defaults it to USD.
func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.DefaultCurrency, nil
	}
	if len(code) != 3 {
		return "", fmt.Errorf("currency must be a 3-letter code, got %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("currency must be a 3-letter code, got %q", code)
		}
	}
	return code, nil
}

func toAPIDebt(d *models.Debt) *api.Debt {
	return &api.Debt{
		ID:        d.ID,
		Name:      d.Name,
		Balance:   money.Round(d.Balance),
		APR:       d.APR,
		Currency:  d.Currency,
		Color:     d.Color,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toAPIPayment(p *models.Payment) *api.Payment {
	return &api.Payment{
		ID:           p.ID,
		DebtID:       p.DebtID,
		Amount:       p.Amount,
		BalanceAfter: p.BalanceAfter,
		CreatedAt:    p.CreatedAt,
		CreatedBy:    p.CreatedBy,
		Note:         p.Note,
	}
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// toAPIResult rounds every amount to cents on the way out.
func toAPIResult(r calculator.Result, currency string) *api.SimulationResult {
	out := &api.SimulationResult{
		TotalOccurrences:  r.TotalOccurrences,
		TotalInterestPaid: money.Round(r.TotalInterestPaid),
		TotalPaid:         money.Round(r.TotalPaid),
		StartingBalance:   money.Round(r.StartingBalance),
		RemainingBalance:  money.Round(r.RemainingBalance),
		PayoffDate:        r.PayoffDate,
		MaxOccurrences:    r.MaxOccurrences,
		DidNotConverge:    r.DidNotConverge,
		Currency:          currency,
		Debts:             make([]*api.DebtResult, len(r.Debts)),
	}
	for i, d := range r.Debts {
		out.Debts[i] = &api.DebtResult{
			DebtID:           d.DebtID,
			DebtName:         d.DebtName,
			OriginalBalance:  money.Round(d.OriginalBalance),
			FinalBalance:     money.Round(d.FinalBalance),
			InterestPaid:     money.Round(d.InterestPaid),
			TotalPaid:        money.Round(d.TotalPaid),
			PayoffOccurrence: d.PayoffOccurrence,
			DisplayColor:     d.DisplayColor,
		}
	}
	for _, p := range r.Schedule {
		balances := make([]float64, len(p.Balances))
		for i, b := range p.Balances {
			balances[i] = money.Round(b)
		}
		out.Schedule = append(out.Schedule, &api.Period{
			Occurrence:       p.Occurrence,
			Date:             p.Date,
			Interest:         money.Round(p.Interest),
			Paid:             money.Round(p.Paid),
			RemainingBalance: money.Round(p.RemainingBalance),
			Balances:         balances,
		})
	}
	return out
}

// simulationOutcome labels a result for metrics and logs.
func simulationOutcome(r calculator.Result) string {
	switch {
	case r.TotalOccurrences == nil:
		return "noop"
	case r.Insufficient():
		return "insufficient"
	case r.DidNotConverge:
		return "not_converged"
	default:
		return "paid_off"
	}
}
