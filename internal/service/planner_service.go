package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/debtwise/internal/cache"
	"github.com/mmynk/debtwise/internal/calculator"
	"github.com/mmynk/debtwise/internal/middleware"
	"github.com/mmynk/debtwise/internal/models"
	"github.com/mmynk/debtwise/internal/money"
	"github.com/mmynk/debtwise/internal/notify"
	"github.com/mmynk/debtwise/internal/storage"
	"github.com/mmynk/debtwise/pkg/api"
	"github.com/mmynk/debtwise/pkg/api/apiconnect"
	"github.com/mmynk/debtwise/pkg/clock"
)

var _ apiconnect.PlannerServiceHandler = (*PlannerService)(nil)

// PlannerOptions holds the optional collaborators of a PlannerService.
// Zero values fall back to an in-memory cache, log-only reminders, the real
// clock and no metrics.
type PlannerOptions struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Notifier notify.NotificationSync
	Clock    clock.Clock
	Metrics  *middleware.Metrics
}

// PlannerService runs payoff simulations over a user's stored debts.
type PlannerService struct {
	store    storage.DebtStore
	cache    cache.Cache
	cacheTTL time.Duration
	notifier notify.NotificationSync
	clock    clock.Clock
	metrics  *middleware.Metrics
}

// NewPlannerService creates a PlannerService backed by store.
func NewPlannerService(store storage.DebtStore, opts PlannerOptions) *PlannerService {
	s := &PlannerService{
		store:    store,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		metrics:  opts.Metrics,
	}
	if s.cache == nil {
		s.cache = cache.NewMemory()
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogSync(nil)
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	return s
}

// cacheEntry is the key material for a cached simulation. It carries every
// debt field that reaches the result; UpdatedAt has only second resolution.
type cacheEntry struct {
	UserID string               `json:"u"`
	Day    string               `json:"d"`
	Debts  []cachedDebt         `json:"debts"`
	Params api.SimulationParams `json:"p"`
}

type cachedDebt struct {
	ID        string  `json:"id"`
	Name      string  `json:"n"`
	Color     string  `json:"c"`
	Balance   float64 `json:"b"`
	APR       float64 `json:"a"`
	UpdatedAt int64   `json:"t"`
}

// Simulate runs a plan or immediate simulation over the selected debts.
func (s *PlannerService) Simulate(ctx context.Context, req *connect.Request[api.SimulateRequest]) (*connect.Response[api.SimulateResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Simulate request received",
		"user_id", userID,
		"mode", req.Msg.Params.Mode,
		"strategy", req.Msg.Params.Strategy,
		"debt_count", len(req.Msg.DebtIDs),
	)

	params, err := parseParams(req.Msg.Params, true)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	// Day granularity keeps cached payoff dates stable within a day.
	params.Start = s.clock.Now().UTC().Truncate(24 * time.Hour)

	debts, currency, err := s.selectDebts(ctx, userID, req.Msg.DebtSelector)
	if err != nil {
		return nil, err
	}

	key, keyErr := simulationCacheKey(userID, params.Start, debts, req.Msg.Params)
	if keyErr == nil {
		if resp, ok := s.cachedSimulation(ctx, key); ok {
			slog.Debug("Simulate served from cache", "user_id", userID, "key", key)
			return connect.NewResponse(resp), nil
		}
	} else {
		slog.Warn("Failed to build cache key", "error", keyErr)
	}

	result := calculator.Simulate(simulationInputs(debts), params)
	outcome := simulationOutcome(result)
	s.metrics.ObserveSimulation(string(params.Mode), string(params.Strategy), outcome)

	resp := &api.SimulateResponse{Result: toAPIResult(result, currency)}
	if keyErr == nil {
		s.storeSimulation(ctx, key, resp)
	}

	slog.Info("Simulate successful",
		"user_id", userID,
		"outcome", outcome,
		"occurrences", result.Occurrences(),
		"interest", money.Round(result.TotalInterestPaid),
	)
	return connect.NewResponse(resp), nil
}

// CompareStrategies runs a plan per strategy and recommends the cheapest.
func (s *PlannerService) CompareStrategies(ctx context.Context, req *connect.Request[api.CompareRequest]) (*connect.Response[api.CompareResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CompareStrategies request received", "user_id", userID, "debt_count", len(req.Msg.DebtIDs))

	params, err := parseParams(req.Msg.Params, false)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	params.Mode = calculator.ModePlan
	params.Start = s.clock.Now()

	debts, currency, err := s.selectDebts(ctx, userID, req.Msg.DebtSelector)
	if err != nil {
		return nil, err
	}

	cmp := calculator.CompareStrategies(simulationInputs(debts), params)
	resp := &api.CompareResponse{
		Recommended:      string(cmp.Recommended),
		InterestSaved:    money.Round(cmp.InterestSaved),
		OccurrencesSaved: cmp.OccurrencesSaved,
	}
	for _, o := range cmp.Outcomes {
		s.metrics.ObserveSimulation(string(calculator.ModePlan), string(o.Strategy), simulationOutcome(o.Result))
		resp.Outcomes = append(resp.Outcomes, &api.StrategyOutcome{
			Strategy: string(o.Strategy),
			Result:   toAPIResult(o.Result, currency),
		})
	}

	slog.Info("CompareStrategies successful", "user_id", userID, "recommended", resp.Recommended)
	return connect.NewResponse(resp), nil
}

// ApplyLumpSum pays a one-off amount into the selected debts, persists the
// new balances with a payment ledger row per debt and resyncs reminders.
func (s *PlannerService) ApplyLumpSum(ctx context.Context, req *connect.Request[api.ApplyLumpSumRequest]) (*connect.Response[api.ApplyLumpSumResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ApplyLumpSum request received",
		"user_id", userID,
		"strategy", req.Msg.Strategy,
		"amount", req.Msg.Amount,
	)

	if !finite(req.Msg.Amount) || req.Msg.Amount <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("amount must be a positive number"))
	}
	strategy, err := parseStrategy(req.Msg.Strategy)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	debts, currency, err := s.selectDebts(ctx, userID, req.Msg.DebtSelector)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result := calculator.SimulateImmediate(simulationInputs(debts), strategy, req.Msg.Amount, now)
	s.metrics.ObserveSimulation(string(calculator.ModeImmediate), string(strategy), simulationOutcome(result))

	var payments []*models.Payment
	var changed []*models.Debt
	for i, r := range result.Debts {
		paid := money.Round(r.TotalPaid)
		if paid <= 0 {
			continue
		}
		payments = append(payments, &models.Payment{
			DebtID:        r.DebtID,
			Amount:        paid,
			BalanceBefore: debts[i].Balance,
			BalanceAfter:  money.Round(r.FinalBalance),
			CreatedAt:     now.Unix(),
			CreatedBy:     userID,
			Note:          strings.TrimSpace(req.Msg.Note),
		})
		changed = append(changed, debts[i])
	}

	// A balance moved since selectDebts fails with Aborted; the caller
	// retries against fresh balances.
	if err := s.store.ApplyPayments(ctx, payments); err != nil {
		return nil, storeError("ApplyPayments", err)
	}

	resp := &api.ApplyLumpSumResponse{Result: toAPIResult(result, currency)}
	for i, p := range payments {
		debt := changed[i]
		debt.Balance = p.BalanceAfter
		debt.UpdatedAt = p.CreatedAt
		if err := s.notifier.SyncDebt(ctx, debt); err != nil {
			slog.Warn("Reminder sync failed", "debt_id", debt.ID, "error", err)
		}
		resp.Payments = append(resp.Payments, toAPIPayment(p))
		resp.Debts = append(resp.Debts, toAPIDebt(debt))
	}

	slog.Info("ApplyLumpSum successful",
		"user_id", userID,
		"payments", len(payments),
		"applied", money.Round(result.TotalPaid),
		"remaining", money.Round(result.RemainingBalance),
	)
	return connect.NewResponse(resp), nil
}

// ListPayments returns the ledger of one of the caller's debts.
func (s *PlannerService) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := ownedDebt(ctx, s.store, userID, req.Msg.DebtID); err != nil {
		return nil, err
	}

	payments, err := s.store.ListPayments(ctx, req.Msg.DebtID)
	if err != nil {
		return nil, storeError("ListPayments", err)
	}

	resp := &api.ListPaymentsResponse{Payments: make([]*api.Payment, len(payments))}
	for i, p := range payments {
		resp.Payments[i] = toAPIPayment(p)
	}
	return connect.NewResponse(resp), nil
}

// selectDebts resolves a selector to the caller's debts and their shared
// currency. Debts are returned in request order, or creation order when
// the selector lists no IDs.
func (s *PlannerService) selectDebts(ctx context.Context, userID string, sel api.DebtSelector) ([]*models.Debt, string, error) {
	var filter string
	if strings.TrimSpace(sel.Currency) != "" {
		code, err := normalizeCurrency(sel.Currency)
		if err != nil {
			return nil, "", connect.NewError(connect.CodeInvalidArgument, err)
		}
		filter = code
	}

	var debts []*models.Debt
	if len(sel.DebtIDs) > 0 {
		seen := make(map[string]bool, len(sel.DebtIDs))
		for _, id := range sel.DebtIDs {
			if seen[id] {
				return nil, "", connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("debt %s listed twice", id))
			}
			seen[id] = true
			debt, err := ownedDebt(ctx, s.store, userID, id)
			if err != nil {
				return nil, "", err
			}
			if filter == "" || debt.Currency == filter {
				debts = append(debts, debt)
			}
		}
	} else {
		all, err := s.store.ListDebts(ctx, userID)
		if err != nil {
			return nil, "", storeError("ListDebts", err)
		}
		for _, d := range all {
			if filter == "" || d.Currency == filter {
				debts = append(debts, d)
			}
		}
	}

	currency := filter
	for _, d := range debts {
		if currency == "" {
			currency = d.Currency
		}
		if d.Currency != currency {
			return nil, "", connect.NewError(connect.CodeInvalidArgument,
				fmt.Errorf("debts use more than one currency (%s, %s); filter by currency", currency, d.Currency))
		}
	}
	return debts, currency, nil
}

func (s *PlannerService) cachedSimulation(ctx context.Context, key string) (*api.SimulateResponse, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
		return nil, false
	}
	s.metrics.ObserveCache(ok)
	if !ok {
		return nil, false
	}
	var resp api.SimulateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		slog.Warn("Discarding unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	resp.Cached = true
	return &resp, true
}

func (s *PlannerService) storeSimulation(ctx context.Context, key string, resp *api.SimulateResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Warn("Failed to encode simulation for cache", "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
}

func simulationCacheKey(userID string, start time.Time, debts []*models.Debt, params api.SimulationParams) (string, error) {
	entry := cacheEntry{
		UserID: userID,
		Day:    start.Format(time.DateOnly),
		Debts:  make([]cachedDebt, len(debts)),
		Params: params,
	}
	for i, d := range debts {
		entry.Debts[i] = cachedDebt{
			ID:        d.ID,
			Name:      d.Name,
			Color:     d.Color,
			Balance:   d.Balance,
			APR:       d.APR,
			UpdatedAt: d.UpdatedAt,
		}
	}
	return cache.Key("simulate", entry)
}

func simulationInputs(debts []*models.Debt) []calculator.Debt {
	inputs := make([]calculator.Debt, len(debts))
	for i, d := range debts {
		inputs[i] = d.SimulationInput()
	}
	return inputs
}

func parseStrategy(raw string) (calculator.Strategy, error) {
	s := calculator.Strategy(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown strategy %q; use avalanche, snowball or proportional", raw)
	}
	return s, nil
}

// parseParams validates wire params. Empty mode means plan, empty frequency
// means monthly and zero occurrences per period means one.
func parseParams(p api.SimulationParams, needStrategy bool) (calculator.Params, error) {
	params := calculator.Params{
		PaymentPerOccurrence: p.PaymentPerOccurrence,
		OccurrencesPerPeriod: p.OccurrencesPerPeriod,
		RecordSchedule:       p.IncludeSchedule,
	}

	switch mode := calculator.Mode(strings.ToLower(p.Mode)); mode {
	case "", calculator.ModePlan:
		params.Mode = calculator.ModePlan
	case calculator.ModeImmediate:
		params.Mode = calculator.ModeImmediate
	default:
		return params, fmt.Errorf("unknown mode %q; use plan or immediate", p.Mode)
	}

	if needStrategy {
		strategy, err := parseStrategy(p.Strategy)
		if err != nil {
			return params, err
		}
		params.Strategy = strategy
	}

	switch f := calculator.Frequency(strings.ToLower(p.Frequency)); f {
	case "":
		params.Frequency = calculator.Monthly
	case calculator.Daily, calculator.Weekly, calculator.BiWeekly, calculator.Monthly:
		params.Frequency = f
	default:
		return params, fmt.Errorf("unknown frequency %q", p.Frequency)
	}

	if !finite(p.PaymentPerOccurrence) || p.PaymentPerOccurrence < 0 {
		return params, errors.New("paymentPerOccurrence must be a non-negative number")
	}
	if p.OccurrencesPerPeriod < 0 {
		return params, errors.New("occurrencesPerPeriod must not be negative")
	}
	if params.OccurrencesPerPeriod == 0 {
		params.OccurrencesPerPeriod = 1
	}
	return params, nil
}
