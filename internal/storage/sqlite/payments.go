package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/debtwise/internal/models"
	"github.com/mmynk/debtwise/internal/storage"
)

// ApplyPayments records payments and moves debt balances in one transaction.
func (s *SQLiteStore) ApplyPayments(ctx context.Context, payments []*models.Payment) error {
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

		res, err := tx.ExecContext(ctx,
			"UPDATE debts SET balance = ?, updated_at = ? WHERE id = ? AND balance = ?",
			p.BalanceAfter, now, p.DebtID, p.BalanceBefore,
		)
		if err != nil {
			return fmt.Errorf("failed to update debt balance: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to check updated rows: %w", err)
		} else if n == 0 {
			return missOrConflict(ctx, tx, p.DebtID)
		}

		var note interface{} = nil
		if p.Note != "" {
			note = p.Note
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO payments (id, debt_id, amount, balance_after, created_at, created_by, note)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.DebtID, p.Amount, p.BalanceAfter, p.CreatedAt, p.CreatedBy, note,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// missOrConflict explains a balance update that matched no row.
func missOrConflict(ctx context.Context, tx *sql.Tx, debtID string) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM debts WHERE id = ?", debtID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check debt: %w", err)
	}
	return fmt.Errorf("debt %s balance changed: %w", debtID, storage.ErrConflict)
}

// ListPayments retrieves all payments for a debt.
func (s *SQLiteStore) ListPayments(ctx context.Context, debtID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, debt_id, amount, balance_after, created_at, created_by, note
		 FROM payments WHERE debt_id = ? ORDER BY created_at DESC, rowid DESC`,
		debtID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		var note sql.NullString
		if err := rows.Scan(&p.ID, &p.DebtID, &p.Amount, &p.BalanceAfter, &p.CreatedAt,
			&p.CreatedBy, &note); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if note.Valid {
			p.Note = note.String
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
