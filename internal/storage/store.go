// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/debtwise/internal/models"
)

var (
	// ErrNotFound is wrapped by every lookup that matches no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is wrapped when a conditional write finds the row changed
	// since it was read.
	ErrConflict = errors.New("concurrent update")
)

// DebtStore defines debt and payment persistence.
// The planner service depends on this capability only.
type DebtStore interface {
	// CreateDebt persists a new debt. ID, CreatedAt and UpdatedAt are
	// populated by the store when empty.
	CreateDebt(ctx context.Context, debt *models.Debt) error

	// GetDebt retrieves a debt by its ID.
	// Returns an error wrapping ErrNotFound if the debt does not exist.
	GetDebt(ctx context.Context, debtID string) (*models.Debt, error)

	// ListDebts returns every debt owned by ownerID, oldest first.
	ListDebts(ctx context.Context, ownerID string) ([]*models.Debt, error)

	// UpdateDebt overwrites name, balance, APR, currency and color.
	UpdateDebt(ctx context.Context, debt *models.Debt) error

	// DeleteDebt removes a debt and its payments.
	DeleteDebt(ctx context.Context, debtID string) error

	// ApplyPayments records the payments and sets each debt's balance to the
	// payment's BalanceAfter in a single transaction. A debt whose balance no
	// longer equals BalanceBefore fails the whole batch with ErrConflict.
	ApplyPayments(ctx context.Context, payments []*models.Payment) error

	// ListPayments returns a debt's payments, newest first.
	ListPayments(ctx context.Context, debtID string) ([]*models.Payment, error)
}

// UserStore defines user account persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns nil, nil when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns nil, nil when no user matches.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store is the full storage backend.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	DebtStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}
