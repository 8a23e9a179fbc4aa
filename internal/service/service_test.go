package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/debtwise/internal/cache"
	"github.com/mmynk/debtwise/internal/middleware"
	"github.com/mmynk/debtwise/internal/models"
	"github.com/mmynk/debtwise/internal/notify"
	"github.com/mmynk/debtwise/internal/storage/sqlite"
	"github.com/mmynk/debtwise/pkg/api/apiconnect"
	"github.com/mmynk/debtwise/pkg/clock"
)

const testUser = "Alice"

var testNow = time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)

// testAuthInterceptor returns a Connect interceptor that sets a test user ID in the context.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return next(middleware.WithUser(ctx, testUser, "alice@example.com"), req)
		}
	}
}

type testEnv struct {
	store    *sqlite.SQLiteStore
	cache    *cache.Memory
	notifier *notify.Recorder
	planner  apiconnect.PlannerServiceClient
	debts    apiconnect.DebtServiceClient
}

// setupTestServer creates a test server backed by a temp-file SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		store:    store,
		cache:    cache.NewMemory(),
		notifier: &notify.Recorder{},
	}

	planner := NewPlannerService(store, PlannerOptions{
		Cache:    env.cache,
		CacheTTL: time.Minute,
		Notifier: env.notifier,
		Clock:    clock.Fixed{T: testNow},
		Metrics:  middleware.NewMetrics(prometheus.NewRegistry()),
	})
	debts := NewDebtService(store, env.notifier)

	interceptors := connect.WithInterceptors(testAuthInterceptor())
	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewPlannerServiceHandler(planner, interceptors))
	mux.Handle(apiconnect.NewDebtServiceHandler(debts, interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	env.planner = apiconnect.NewPlannerServiceClient(http.DefaultClient, server.URL)
	env.debts = apiconnect.NewDebtServiceClient(http.DefaultClient, server.URL)
	return env
}

// seedDebt writes a debt straight to the store.
func (e *testEnv) seedDebt(t *testing.T, owner, name string, balance, apr float64, currency string) *models.Debt {
	t.Helper()
	debt := &models.Debt{OwnerID: owner, Name: name, Balance: balance, APR: apr, Currency: currency}
	if err := e.store.CreateDebt(context.Background(), debt); err != nil {
		t.Fatalf("failed to seed debt: %v", err)
	}
	return debt
}

func expectCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	if got := connect.CodeOf(err); got != code {
		t.Fatalf("code = %v, want %v (err %v)", got, code, err)
	}
}
