package cron

import (
	"context"
	"fmt"

	"github.com/selvamresidency/hotel-backend/internal/notifications"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
)

const defaultDispatchRounds = 10

type notificationDispatcher interface {
	Dispatch(ctx context.Context) (notifications.DispatchResult, error)
}

// NotificationDispatchJobParams configure the outbox drain job.
type NotificationDispatchJobParams struct {
	Logger     *logger.Logger
	Dispatcher notificationDispatcher
	// MaxRounds caps how many batches one run drains.
	MaxRounds int
}

type notificationDispatchJob struct {
	logg       *logger.Logger
	dispatcher notificationDispatcher
	maxRounds  int
}

// NewNotificationDispatchJob builds the job that drains due outbox rows.
func NewNotificationDispatchJob(params NotificationDispatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	rounds := params.MaxRounds
	if rounds <= 0 {
		rounds = defaultDispatchRounds
	}
	return &notificationDispatchJob{
		logg:       params.Logger,
		dispatcher: params.Dispatcher,
		maxRounds:  rounds,
	}, nil
}

func (j *notificationDispatchJob) Name() string { return "notification-dispatch" }

// Run keeps dispatching until a batch comes back empty. Rows that fail are
// rescheduled into the future, so each round only sees fresh work.
func (j *notificationDispatchJob) Run(ctx context.Context) error {
	var total notifications.DispatchResult
	for round := 0; round < j.maxRounds; round++ {
		res, err := j.dispatcher.Dispatch(ctx)
		if err != nil {
			return fmt.Errorf("dispatch notifications: %w", err)
		}
		total.Sent += res.Sent
		total.Retrying += res.Retrying
		total.Failed += res.Failed
		if res.Processed() == 0 {
			break
		}
	}
	if total.Processed() > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"sent":     total.Sent,
			"retrying": total.Retrying,
			"failed":   total.Failed,
		})
		j.logg.Info(logCtx, "notification dispatch completed")
	}
	return nil
}
