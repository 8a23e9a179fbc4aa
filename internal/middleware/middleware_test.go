package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/debtwise/internal/auth"
	"github.com/mmynk/debtwise/internal/models"
	"github.com/mmynk/debtwise/pkg/api"
	"github.com/mmynk/debtwise/pkg/api/apiconnect"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// whoamiService echoes the caller's identity through GetDebt.
type whoamiService struct {
	apiconnect.UnimplementedDebtServiceHandler
}

func (whoamiService) GetDebt(ctx context.Context, req *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error) {
	return connect.NewResponse(&api.GetDebtResponse{
		Debt: &api.Debt{ID: req.Msg.DebtID, Name: GetUserID(ctx), Color: GetEmail(ctx)},
	}), nil
}

func setupTestServer(t *testing.T, interceptors ...connect.Interceptor) apiconnect.DebtServiceClient {
	t.Helper()
	path, handler := apiconnect.NewDebtServiceHandler(whoamiService{}, connect.WithInterceptors(interceptors...))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return apiconnect.NewDebtServiceClient(http.DefaultClient, server.URL)
}

func getDebt(client apiconnect.DebtServiceClient, authorization string) (*api.Debt, error) {
	req := connect.NewRequest(&api.GetDebtRequest{DebtID: "d1"})
	if authorization != "" {
		req.Header().Set("Authorization", authorization)
	}
	resp, err := client.GetDebt(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return resp.Msg.Debt, nil
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret, time.Hour, nil)
	token, err := jwtManager.Generate(&models.User{ID: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	client := setupTestServer(t, RequireAuth(jwtManager))

	tests := []struct {
		name          string
		authorization string
		expectedCode  connect.Code
	}{
		{"missing header", "", connect.CodeUnauthenticated},
		{"wrong scheme", "Basic " + token, connect.CodeUnauthenticated},
		{"bad token", "Bearer nope", connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := getDebt(client, tt.authorization)
			if connect.CodeOf(err) != tt.expectedCode {
				t.Errorf("code = %v, want %v (err %v)", connect.CodeOf(err), tt.expectedCode, err)
			}
		})
	}

	t.Run("valid token", func(t *testing.T) {
		debt, err := getDebt(client, "Bearer "+token)
		if err != nil {
			t.Fatalf("GetDebt failed: %v", err)
		}
		if debt.Name != "alice" || debt.Color != "alice@example.com" {
			t.Errorf("identity not propagated: %+v", debt)
		}
	})
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret, time.Hour, nil)
	token, _ := jwtManager.Generate(&models.User{ID: "bob", Email: "bob@example.com"})
	client := setupTestServer(t, OptionalAuth(jwtManager))

	anon, err := getDebt(client, "")
	if err != nil {
		t.Fatalf("anonymous call failed: %v", err)
	}
	if anon.Name != "" {
		t.Errorf("expected anonymous caller, got %q", anon.Name)
	}

	invalid, err := getDebt(client, "Bearer garbage")
	if err != nil || invalid.Name != "" {
		t.Errorf("invalid token should pass anonymously, got %+v, %v", invalid, err)
	}

	authed, err := getDebt(client, "Bearer "+token)
	if err != nil || authed.Name != "bob" {
		t.Errorf("expected bob, got %+v, %v", authed, err)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two calls should pass")
	}
	if rl.Allow("a") {
		t.Error("third call within window should be limited")
	}
	if !rl.Allow("b") {
		t.Error("other keys have their own bucket")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("bucket should refill after the window")
	}

	now = now.Add(2 * time.Hour)
	rl.cleanup()
	if len(rl.clients) != 0 {
		t.Errorf("expected idle buckets to be dropped, have %d", len(rl.clients))
	}
	rl.Stop()
}

func TestRateLimiter_Interceptor(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()
	client := setupTestServer(t, rl.Interceptor())

	if _, err := getDebt(client, ""); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	_, err := getDebt(client, "")
	if connect.CodeOf(err) != connect.CodeResourceExhausted {
		t.Errorf("code = %v, want ResourceExhausted", connect.CodeOf(err))
	}
}

func TestCallerKey(t *testing.T) {
	if got := callerKey(WithUser(context.Background(), "u1", ""), "10.0.0.1:5555"); got != "user:u1" {
		t.Errorf("callerKey = %q, want user key", got)
	}
	if got := callerKey(context.Background(), "10.0.0.1:5555"); got != "ip:10.0.0.1" {
		t.Errorf("callerKey = %q, want ip key", got)
	}
	if got := callerKey(context.Background(), "pipe"); got != "ip:pipe" {
		t.Errorf("callerKey = %q, want raw peer", got)
	}
}

func TestMetrics_Interceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	jwtManager := auth.NewJWTManager(testSecret, time.Hour, nil)
	client := setupTestServer(t, m.Interceptor(), RequireAuth(jwtManager))

	getDebt(client, "")
	m.ObserveSimulation("plan", "avalanche", "paid_off")
	m.ObserveCache(true)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				found[mf.GetName()] += c.GetValue()
			}
		}
	}
	for _, name := range []string{
		"debtwise_rpc_requests_total",
		"debtwise_simulations_total",
		"debtwise_cache_lookups_total",
	} {
		if found[name] != 1 {
			t.Errorf("%s = %v, want 1", name, found[name])
		}
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveCache(false)
	nilMetrics.ObserveSimulation("plan", "snowball", "noop")
}

func TestCORS(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	if called {
		t.Error("preflight should not reach the handler")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	rec = httptest.NewRecorder()
	RequestLogger(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	if !called {
		t.Error("POST should reach the handler")
	}
}
