// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface using lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mmynk/debtwise/internal/models"
	"github.com/mmynk/debtwise/internal/storage"
)

var _ storage.Store = (*PostgresStore)(nil)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS debts (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  balance DOUBLE PRECISION NOT NULL CHECK (balance >= 0),
  apr DOUBLE PRECISION NOT NULL CHECK (apr >= 0),
  currency TEXT NOT NULL,
  color TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  seq BIGSERIAL
);

CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  debt_id TEXT NOT NULL REFERENCES debts(id) ON DELETE CASCADE,
  amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
  balance_after DOUBLE PRECISION NOT NULL,
  created_at BIGINT NOT NULL,
  created_by TEXT NOT NULL,
  note TEXT NOT NULL DEFAULT '',
  seq BIGSERIAL
);

CREATE INDEX IF NOT EXISTS idx_debts_owner ON debts(owner_id);
CREATE INDEX IF NOT EXISTS idx_payments_debt ON payments(debt_id);
`

// PostgresStore implements storage.Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// New opens the database at dsn, verifies the connection and migrates.
// maxOpen <= 0 leaves the pool unbounded.
func New(ctx context.Context, dsn string, maxOpen int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

const debtColumns = "id, owner_id, name, balance, apr, currency, color, created_at, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanDebt(row scanner) (*models.Debt, error) {
	d := &models.Debt{}
	err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &d.Balance, &d.APR, &d.Currency, &d.Color,
		&d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// CreateDebt inserts a debt.
func (s *PostgresStore) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	if debt.CreatedAt == 0 {
		debt.CreatedAt = time.Now().Unix()
	}
	if debt.UpdatedAt == 0 {
		debt.UpdatedAt = debt.CreatedAt
	}
	if debt.Currency == "" {
		debt.Currency = models.DefaultCurrency
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO debts ("+debtColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		debt.ID, debt.OwnerID, debt.Name, debt.Balance, debt.APR, debt.Currency, debt.Color,
		debt.CreatedAt, debt.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("debt %s: %w", debt.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	return nil
}

// GetDebt retrieves a debt by ID.
func (s *PostgresStore) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	d, err := scanDebt(s.db.QueryRowContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE id = $1", debtID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return d, nil
}

// ListDebts retrieves a user's debts in creation order.
func (s *PostgresStore) ListDebts(ctx context.Context, ownerID string) ([]*models.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE owner_id = $1 ORDER BY created_at, seq", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}
	return debts, nil
}

// UpdateDebt overwrites a debt's mutable fields.
func (s *PostgresStore) UpdateDebt(ctx context.Context, debt *models.Debt) error {
	debt.UpdatedAt = time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		`UPDATE debts SET name = $1, balance = $2, apr = $3, currency = $4, color = $5, updated_at = $6
		 WHERE id = $7`,
		debt.Name, debt.Balance, debt.APR, debt.Currency, debt.Color, debt.UpdatedAt, debt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}
	return expectRow(res, debt.ID)
}

// DeleteDebt removes a debt; payments cascade.
func (s *PostgresStore) DeleteDebt(ctx context.Context, debtID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM debts WHERE id = $1", debtID)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	return expectRow(res, debtID)
}

func expectRow(res sql.Result, debtID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	return nil
}

// ApplyPayments records payments and moves balances in one transaction.
func (s *PostgresStore) ApplyPayments(ctx context.Context, payments []*models.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, p := range payments {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt == 0 {
			p.CreatedAt = now
		}
		// The row lock makes a concurrent writer re-check balance after the
		// first commit, so it matches nothing.
		res, err := tx.ExecContext(ctx,
			"UPDATE debts SET balance = $1, updated_at = $2 WHERE id = $3 AND balance = $4",
			p.BalanceAfter, now, p.DebtID, p.BalanceBefore)
		if err != nil {
			return fmt.Errorf("failed to update debt balance: %w", err)
		}
		if err := expectRow(res, p.DebtID); errors.Is(err, storage.ErrNotFound) {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				"SELECT EXISTS (SELECT 1 FROM debts WHERE id = $1)", p.DebtID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check debt: %w", err)
			}
			if exists {
				return fmt.Errorf("debt %s balance changed: %w", p.DebtID, storage.ErrConflict)
			}
			return err
		} else if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments (id, debt_id, amount, balance_after, created_at, created_by, note)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, p.DebtID, p.Amount, p.BalanceAfter, p.CreatedAt, p.CreatedBy, p.Note,
		); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListPayments returns a debt's payments, newest first.
func (s *PostgresStore) ListPayments(ctx context.Context, debtID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, debt_id, amount, balance_after, created_at, created_by, note
		 FROM payments WHERE debt_id = $1 ORDER BY created_at DESC, seq DESC`, debtID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.DebtID, &p.Amount, &p.BalanceAfter, &p.CreatedAt,
			&p.CreatedBy, &p.Note); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

const userColumns = "id, email, display_name, password_hash, created_at, updated_at"

// CreateUser inserts a user. Emails are stored lower-cased.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		user.ID, strings.ToLower(user.Email), user.DisplayName, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns nil, nil when no user matches.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", strings.ToLower(email))
}

// GetUserByID returns nil, nil when no user matches.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

// getUser is only called with fixed column names.
func (s *PostgresStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = $1", value,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return u, nil
}
