package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/selvamresidency/hotel-backend/internal/repo"
	"github.com/selvamresidency/hotel-backend/pkg/db/models"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
)

// Repository persists queued notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.NotificationOutbox) error
	FetchDue(ctx context.Context, now time.Time, limit int) ([]models.NotificationOutbox, error)
	Lease(ctx context.Context, ids []uuid.UUID, until time.Time) error
	MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkAttemptFailed(ctx context.Context, id uuid.UUID, cause string, next time.Time, terminal bool) error
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[enums.NotificationStatus]int64, error)
}

type repositoryImpl struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{Base: repo.NewBase(db)}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{Base: r.Base.WithTx(tx)}
}

func (r *repositoryImpl) Create(ctx context.Context, row *models.NotificationOutbox) error {
	return r.DB(ctx).Create(row).Error
}

// FetchDue returns pending rows whose next attempt is due, oldest first.
// On postgres the rows are locked so concurrent dispatchers skip them.
func (r *repositoryImpl) FetchDue(ctx context.Context, now time.Time, limit int) ([]models.NotificationOutbox, error) {
	query := r.DB(ctx).
		Where("status = ? AND next_attempt_at <= ?", enums.NotificationStatusPending, now).
		Order("created_at ASC").
		Limit(limit)
	if r.IsPostgres() {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}

	var rows []models.NotificationOutbox
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Lease pushes next_attempt_at forward so other dispatchers skip the rows
// while they are being sent.
func (r *repositoryImpl) Lease(ctx context.Context, ids []uuid.UUID, until time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id IN ?", ids).
		Update("next_attempt_at", until).Error
}

func (r *repositoryImpl) MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.DB(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.NotificationStatusSent,
			"sent_at":       now,
			"last_error":    nil,
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

func (r *repositoryImpl) MarkAttemptFailed(ctx context.Context, id uuid.UUID, cause string, next time.Time, terminal bool) error {
	status := enums.NotificationStatusPending
	if terminal {
		status = enums.NotificationStatusFailed
	}
	return r.DB(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          status,
			"last_error":      cause,
			"next_attempt_at": next,
			"attempt_count":   gorm.Expr("attempt_count + 1"),
		}).Error
}

func (r *repositoryImpl) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB(ctx).
		Where("status = ? AND sent_at < ?", enums.NotificationStatusSent, cutoff).
		Delete(&models.NotificationOutbox{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) CountByStatus(ctx context.Context) (map[enums.NotificationStatus]int64, error) {
	var rows []struct {
		Status enums.NotificationStatus
		Total  int64
	}
	if err := r.DB(ctx).
		Model(&models.NotificationOutbox{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[enums.NotificationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
