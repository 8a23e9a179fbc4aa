// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/debtwise/internal/models"
	"github.com/mmynk/debtwise/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// dsnOptions enables foreign keys and waits up to 5s on a lock held by
// another process.
const dsnOptions = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the DSN run on every pooled connection.
	db, err := sql.Open("sqlite", "file:"+dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection queues writes in the
	// pool instead of failing them with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateDebt persists a new debt to the database.
func (s *SQLiteStore) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if debt.CreatedAt == 0 {
		debt.CreatedAt = now
	}
	if debt.UpdatedAt == 0 {
		debt.UpdatedAt = debt.CreatedAt
	}
	if debt.Currency == "" {
		debt.Currency = models.DefaultCurrency
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO debts (id, owner_id, name, balance, apr, currency, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debt.ID, debt.OwnerID, debt.Name, debt.Balance, debt.APR, debt.Currency, debt.Color,
		debt.CreatedAt, debt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	return nil
}

// GetDebt retrieves a debt by ID.
func (s *SQLiteStore) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	debt := &models.Debt{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, balance, apr, currency, color, created_at, updated_at
		 FROM debts WHERE id = ?`,
		debtID,
	).Scan(&debt.ID, &debt.OwnerID, &debt.Name, &debt.Balance, &debt.APR, &debt.Currency,
		&debt.Color, &debt.CreatedAt, &debt.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return debt, nil
}

// ListDebts retrieves all debts owned by a user.
func (s *SQLiteStore) ListDebts(ctx context.Context, ownerID string) ([]*models.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, name, balance, apr, currency, color, created_at, updated_at
		 FROM debts WHERE owner_id = ? ORDER BY created_at ASC, rowid ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		debt := &models.Debt{}
		if err := rows.Scan(&debt.ID, &debt.OwnerID, &debt.Name, &debt.Balance, &debt.APR,
			&debt.Currency, &debt.Color, &debt.CreatedAt, &debt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}
	return debts, nil
}

// UpdateDebt updates an existing debt.
func (s *SQLiteStore) UpdateDebt(ctx context.Context, debt *models.Debt) error {
	debt.UpdatedAt = time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		`UPDATE debts SET name = ?, balance = ?, apr = ?, currency = ?, color = ?, updated_at = ?
		 WHERE id = ?`,
		debt.Name, debt.Balance, debt.APR, debt.Currency, debt.Color, debt.UpdatedAt, debt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("debt %s: %w", debt.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteDebt removes a debt by ID. Payments cascade.
func (s *SQLiteStore) DeleteDebt(ctx context.Context, debtID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM debts WHERE id = ?", debtID)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	return nil
}
