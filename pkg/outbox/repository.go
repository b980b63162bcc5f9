package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/midlandoil/storefront/pkg/db/models"
)

const maxErrorLen = 1024

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// FetchUnpublishedForPublish returns the oldest rows still eligible for
// publishing. On Postgres the rows are locked with SKIP LOCKED so several
// publishers can run side by side.
func (r *Repository) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	q := tx.Where("published_at IS NULL AND terminal_at IS NULL")
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	q = q.Order("created_at ASC").Order("id ASC").Limit(limit)
	if tx.Dialector != nil && tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	var rows []models.OutboxEvent
	err := q.Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now().UTC(),
		}).Error
}

func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    truncateError(err),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkTerminalTx stops retries for a row. The row itself is the dead letter:
// it keeps its payload, last error and attempt count.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    truncateError(err),
			"attempt_count": terminalAttempts,
			"terminal_at":   time.Now().UTC(),
		}).Error
}

// DeleteSettledBefore removes rows that were published or abandoned before the
// cutoff. Pending rows are never touched.
func (r *Repository) DeleteSettledBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	res := tx.WithContext(ctx).
		Where("(published_at IS NOT NULL AND published_at < ?) OR (terminal_at IS NOT NULL AND terminal_at < ?)", cutoff, cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

// Backlog summarises rows that still need attention.
type Backlog struct {
	Pending       int64
	Terminal      int64
	OldestPending *time.Time
}

func (r *Repository) Backlog(ctx context.Context) (Backlog, error) {
	var out Backlog
	base := r.db.WithContext(ctx).Model(&models.OutboxEvent{})
	if err := base.Session(&gorm.Session{}).Where("published_at IS NULL AND terminal_at IS NULL").Count(&out.Pending).Error; err != nil {
		return Backlog{}, err
	}
	if err := base.Session(&gorm.Session{}).Where("terminal_at IS NOT NULL").Count(&out.Terminal).Error; err != nil {
		return Backlog{}, err
	}
	if out.Pending == 0 {
		return out, nil
	}
	var oldest models.OutboxEvent
	err := base.Session(&gorm.Session{}).
		Where("published_at IS NULL AND terminal_at IS NULL").
		Order("created_at ASC").
		Limit(1).
		Find(&oldest).Error
	if err != nil {
		return Backlog{}, err
	}
	if !oldest.CreatedAt.IsZero() {
		created := oldest.CreatedAt
		out.OldestPending = &created
	}
	return out, nil
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) <= maxErrorLen {
		return msg
	}
	return msg[:maxErrorLen]
}
