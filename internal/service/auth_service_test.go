package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/debtwise/internal/auth"
	"github.com/mmynk/debtwise/internal/middleware"
	"github.com/mmynk/debtwise/internal/storage/sqlite"
	"github.com/mmynk/debtwise/pkg/api"
	"github.com/mmynk/debtwise/pkg/api/apiconnect"
)

// setupAuthServer wires the AuthService and DebtService with real JWT auth.
func setupAuthServer(t *testing.T) (apiconnect.AuthServiceClient, apiconnect.DebtServiceClient) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "debtwise-auth-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "auth.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour, nil)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	authSvc := NewAuthService(authenticator, jwtManager, store, nil)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(authSvc,
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager))))
	mux.Handle(apiconnect.NewDebtServiceHandler(NewDebtService(store, nil),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager))))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		apiconnect.NewDebtServiceClient(http.DefaultClient, server.URL)
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthService_Flow(t *testing.T) {
	authClient, debtClient := setupAuthServer(t)
	ctx := context.Background()

	reg, err := authClient.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Password:    "correct horse",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if reg.Msg.Token == "" || reg.Msg.User.ID == "" {
		t.Fatalf("unexpected register response: %+v", reg.Msg)
	}

	login, err := authClient.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "Alice@Example.com",
		Password: "correct horse",
	}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.Msg.User.ID != reg.Msg.User.ID {
		t.Errorf("login user = %s, want %s", login.Msg.User.ID, reg.Msg.User.ID)
	}

	me, err := authClient.GetCurrentUser(ctx, withToken(&api.GetCurrentUserRequest{}, login.Msg.Token))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if me.Msg.User.DisplayName != "Alice" || me.Msg.User.Email != "alice@example.com" {
		t.Errorf("unexpected user: %+v", me.Msg.User)
	}

	created, err := debtClient.CreateDebt(ctx, withToken(&api.CreateDebtRequest{Name: "Card", Balance: 100}, login.Msg.Token))
	if err != nil {
		t.Fatalf("CreateDebt with token failed: %v", err)
	}
	if created.Msg.Debt.Currency != "USD" {
		t.Errorf("currency = %q, want default USD", created.Msg.Debt.Currency)
	}

	if _, err := authClient.Logout(ctx, withToken(&api.LogoutRequest{}, login.Msg.Token)); err != nil {
		t.Errorf("Logout failed: %v", err)
	}
}

func TestAuthService_Errors(t *testing.T) {
	authClient, debtClient := setupAuthServer(t)
	ctx := context.Background()

	_, err := authClient.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "bob@example.com", DisplayName: "Bob", Password: "long enough",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name         string
		call         func() error
		expectedCode connect.Code
	}{
		{"duplicate email", func() error {
			_, err := authClient.Register(ctx, connect.NewRequest(&api.RegisterRequest{
				Email: "BOB@example.com", DisplayName: "Bob", Password: "long enough",
			}))
			return err
		}, connect.CodeAlreadyExists},
		{"weak password", func() error {
			_, err := authClient.Register(ctx, connect.NewRequest(&api.RegisterRequest{
				Email: "carol@example.com", DisplayName: "Carol", Password: "short",
			}))
			return err
		}, connect.CodeInvalidArgument},
		{"missing display name", func() error {
			_, err := authClient.Register(ctx, connect.NewRequest(&api.RegisterRequest{
				Email: "dave@example.com", Password: "long enough",
			}))
			return err
		}, connect.CodeInvalidArgument},
		{"bad email", func() error {
			_, err := authClient.Register(ctx, connect.NewRequest(&api.RegisterRequest{
				Email: "not-an-email", DisplayName: "X", Password: "long enough",
			}))
			return err
		}, connect.CodeInvalidArgument},
		{"wrong password", func() error {
			_, err := authClient.Login(ctx, connect.NewRequest(&api.LoginRequest{
				Email: "bob@example.com", Password: "not the password",
			}))
			return err
		}, connect.CodeUnauthenticated},
		{"empty login", func() error {
			_, err := authClient.Login(ctx, connect.NewRequest(&api.LoginRequest{}))
			return err
		}, connect.CodeInvalidArgument},
		{"current user without token", func() error {
			_, err := authClient.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
			return err
		}, connect.CodeUnauthenticated},
		{"debts without token", func() error {
			_, err := debtClient.ListDebts(ctx, connect.NewRequest(&api.ListDebtsRequest{}))
			return err
		}, connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, tt.call(), tt.expectedCode)
		})
	}
}
