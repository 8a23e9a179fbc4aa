package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtwise/internal/models"
	"github.com/mmynk/debtwise/internal/money"
	"github.com/mmynk/debtwise/internal/notify"
	"github.com/mmynk/debtwise/internal/storage"
	"github.com/mmynk/debtwise/pkg/api"
	"github.com/mmynk/debtwise/pkg/api/apiconnect"
)

var _ apiconnect.DebtServiceHandler = (*DebtService)(nil)

const (
	maxNameLength = 100
	maxAPR        = 1000
)

// DebtService implements the Connect DebtService.
type DebtService struct {
	store    storage.DebtStore
	notifier notify.NotificationSync
}

// NewDebtService creates a DebtService. A nil notifier logs reminder
// changes only.
func NewDebtService(store storage.DebtStore, notifier notify.NotificationSync) *DebtService {
	if notifier == nil {
		notifier = notify.NewLogSync(nil)
	}
	return &DebtService{store: store, notifier: notifier}
}

type debtFields struct {
	name     string
	balance  float64
	apr      float64
	currency string
	color    string
}

func (f *debtFields) validate() error {
	f.name = strings.TrimSpace(f.name)
	if f.name == "" {
		return errors.New("name is required")
	}
	if len(f.name) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	if !finite(f.balance) || f.balance < 0 {
		return errors.New("balance must be a non-negative number")
	}
	if !finite(f.apr) || f.apr < 0 || f.apr > maxAPR {
		return fmt.Errorf("apr must be between 0 and %d", maxAPR)
	}
	currency, err := normalizeCurrency(f.currency)
	if err != nil {
		return err
	}
	f.currency = currency
	f.color = strings.TrimSpace(f.color)
	return nil
}

// CreateDebt adds a debt for the caller.
func (s *DebtService) CreateDebt(ctx context.Context, req *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.CreateDebtResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateDebt request received", "user_id", userID, "name", req.Msg.Name)

	fields := debtFields{
		name:     req.Msg.Name,
		balance:  req.Msg.Balance,
		apr:      req.Msg.APR,
		currency: req.Msg.Currency,
		color:    req.Msg.Color,
	}
	if err := fields.validate(); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	debt := &models.Debt{
		OwnerID:  userID,
		Name:     fields.name,
		Balance:  fields.balance,
		APR:      fields.apr,
		Currency: fields.currency,
		Color:    fields.color,
	}
	if err := s.store.CreateDebt(ctx, debt); err != nil {
		return nil, storeError("CreateDebt", err)
	}
	if err := s.notifier.SyncDebt(ctx, debt); err != nil {
		slog.Warn("Reminder sync failed", "debt_id", debt.ID, "error", err)
	}

	slog.Info("Debt created", "debt_id", debt.ID, "user_id", userID)
	return connect.NewResponse(&api.CreateDebtResponse{Debt: toAPIDebt(debt)}), nil
}

// GetDebt returns one of the caller's debts.
func (s *DebtService) GetDebt(ctx context.Context, req *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	debt, err := ownedDebt(ctx, s.store, userID, req.Msg.DebtID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetDebtResponse{Debt: toAPIDebt(debt)}), nil
}

// ListDebts returns the caller's debts, oldest first.
func (s *DebtService) ListDebts(ctx context.Context, req *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var filter string
	if strings.TrimSpace(req.Msg.Currency) != "" {
		if filter, err = normalizeCurrency(req.Msg.Currency); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	debts, err := s.store.ListDebts(ctx, userID)
	if err != nil {
		return nil, storeError("ListDebts", err)
	}

	resp := &api.ListDebtsResponse{Debts: []*api.Debt{}}
	currencies := make(map[string]bool)
	var total float64
	for _, d := range debts {
		if filter != "" && d.Currency != filter {
			continue
		}
		currencies[d.Currency] = true
		total += d.Balance
		resp.Debts = append(resp.Debts, toAPIDebt(d))
	}
	if len(currencies) == 1 {
		resp.TotalBalance = money.Round(total)
	}

	slog.Info("ListDebts successful", "user_id", userID, "count", len(resp.Debts))
	return connect.NewResponse(resp), nil
}

// UpdateDebt overwrites the editable fields of one of the caller's debts.
func (s *DebtService) UpdateDebt(ctx context.Context, req *connect.Request[api.UpdateDebtRequest]) (*connect.Response[api.UpdateDebtResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdateDebt request received", "user_id", userID, "debt_id", req.Msg.DebtID)

	debt, err := ownedDebt(ctx, s.store, userID, req.Msg.DebtID)
	if err != nil {
		return nil, err
	}

	fields := debtFields{
		name:     req.Msg.Name,
		balance:  req.Msg.Balance,
		apr:      req.Msg.APR,
		currency: req.Msg.Currency,
		color:    req.Msg.Color,
	}
	if fields.currency == "" {
		fields.currency = debt.Currency
	}
	if err := fields.validate(); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	balanceChanged := debt.Balance != fields.balance || debt.APR != fields.apr
	debt.Name = fields.name
	debt.Balance = fields.balance
	debt.APR = fields.apr
	debt.Currency = fields.currency
	debt.Color = fields.color

	if err := s.store.UpdateDebt(ctx, debt); err != nil {
		return nil, storeError("UpdateDebt", err)
	}
	if balanceChanged {
		if err := s.notifier.SyncDebt(ctx, debt); err != nil {
			slog.Warn("Reminder sync failed", "debt_id", debt.ID, "error", err)
		}
	}

	slog.Info("Debt updated", "debt_id", debt.ID, "user_id", userID)
	return connect.NewResponse(&api.UpdateDebtResponse{Debt: toAPIDebt(debt)}), nil
}

// DeleteDebt removes one of the caller's debts and its payments.
func (s *DebtService) DeleteDebt(ctx context.Context, req *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.DeleteDebtResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteDebt request received", "user_id", userID, "debt_id", req.Msg.DebtID)

	if _, err := ownedDebt(ctx, s.store, userID, req.Msg.DebtID); err != nil {
		return nil, err
	}
	if err := s.store.DeleteDebt(ctx, req.Msg.DebtID); err != nil {
		return nil, storeError("DeleteDebt", err)
	}
	if err := s.notifier.ClearDebt(ctx, req.Msg.DebtID); err != nil {
		slog.Warn("Reminder clear failed", "debt_id", req.Msg.DebtID, "error", err)
	}

	slog.Info("Debt deleted", "debt_id", req.Msg.DebtID, "user_id", userID)
	return connect.NewResponse(&api.DeleteDebtResponse{}), nil
}
