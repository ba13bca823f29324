package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/selvamresidency/hotel-backend/pkg/logger"
)

const defaultNotificationRetention = 30 * 24 * time.Hour

type notificationRetentionRepo interface {
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationRetentionJobParams configure the sent-notification cleanup.
type NotificationRetentionJobParams struct {
	Logger    *logger.Logger
	Repo      notificationRetentionRepo
	Retention time.Duration
}

type notificationRetentionJob struct {
	logg      *logger.Logger
	repo      notificationRetentionRepo
	retention time.Duration
	now       func() time.Time
}

// NewNotificationRetentionJob builds the job that prunes delivered outbox rows.
func NewNotificationRetentionJob(params NotificationRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultNotificationRetention
	}
	return &notificationRetentionJob{
		logg:      params.Logger,
		repo:      params.Repo,
		retention: retention,
		now:       time.Now,
	}, nil
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

// Run only touches sent rows; failed rows stay for inspection.
func (j *notificationRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.repo.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete sent notifications: %w", err)
	}
	if deleted > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"deleted": deleted,
			"cutoff":  cutoff,
		})
		j.logg.Info(logCtx, "notification retention completed")
	}
	return nil
}
