package notifications

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/selvamresidency/hotel-backend/pkg/db/models"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/metrics"
)

// Outbox queues requests in notification_outbox for the dispatcher.
type Outbox struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.HotelMetrics
	now     func() time.Time
}

type OutboxParams struct {
	Repo    Repository
	Logger  *logger.Logger
	Metrics *metrics.HotelMetrics
	Now     func() time.Time
}

func NewOutbox(params OutboxParams) (*Outbox, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification repository required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Outbox{
		repo:    params.Repo,
		logg:    orDiscard(params.Logger),
		metrics: params.Metrics,
		now:     params.Now,
	}, nil
}

func (o *Outbox) Notify(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	fields := req.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return deliveryError(err, req)
	}

	now := o.now().UTC()
	row := &models.NotificationOutbox{
		ID:            uuid.New(),
		Kind:          req.Kind,
		Recipient:     strings.TrimSpace(req.Recipient),
		Fields:        string(payload),
		Status:        enums.NotificationStatusPending,
		CreatedAt:     now,
		NextAttemptAt: now,
	}
	if err := o.repo.Create(ctx, row); err != nil {
		o.metrics.ObserveNotification(string(req.Kind), "queue_failed")
		o.logg.Error(o.logg.WithField(ctx, "kind", string(req.Kind)), "notifications.enqueue_failed", err)
		return deliveryError(err, req)
	}
	o.metrics.ObserveNotification(string(req.Kind), "queued")
	return nil
}
