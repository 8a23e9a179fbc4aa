// Package notify defines the reminder synchronization capability the
// services call after a debt's balance changes. Delivery itself lives
// outside debtwise.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmynk/debtwise/internal/models"
)

// NotificationSync keeps scheduled reminders aligned with debt records.
type NotificationSync interface {
	// SyncDebt reschedules reminders for a debt whose balance changed.
	// Paid-off debts should have their reminders cancelled.
	SyncDebt(ctx context.Context, debt *models.Debt) error
	// ClearDebt cancels every reminder for a deleted debt.
	ClearDebt(ctx context.Context, debtID string) error
}

// LogSync records sync requests in the structured log. It is the default
// when no reminder backend is configured.
type LogSync struct {
	logger *slog.Logger
}

// NewLogSync creates a LogSync writing to logger, or slog.Default() if nil.
func NewLogSync(logger *slog.Logger) *LogSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSync{logger: logger}
}

func (s *LogSync) SyncDebt(ctx context.Context, debt *models.Debt) error {
	if debt.Balance <= 0 {
		s.logger.InfoContext(ctx, "Reminders cancelled", "debt_id", debt.ID, "name", debt.Name)
		return nil
	}
	s.logger.InfoContext(ctx, "Reminders rescheduled",
		"debt_id", debt.ID,
		"name", debt.Name,
		"balance", debt.Balance,
	)
	return nil
}

func (s *LogSync) ClearDebt(ctx context.Context, debtID string) error {
	s.logger.InfoContext(ctx, "Reminders cleared", "debt_id", debtID)
	return nil
}

// Recorder captures calls in memory; tests use it to assert what was synced.
type Recorder struct {
	mu      sync.Mutex
	Synced  []models.Debt
	Cleared []string
	// Err, when set, is returned from every call.
	Err error
}

func (r *Recorder) SyncDebt(_ context.Context, debt *models.Debt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Synced = append(r.Synced, *debt)
	return r.Err
}

func (r *Recorder) ClearDebt(_ context.Context, debtID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Cleared = append(r.Cleared, debtID)
	return r.Err
}
