package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/selvamresidency/hotel-backend/pkg/db/models"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/metrics"
	"github.com/selvamresidency/hotel-backend/pkg/sendgrid"
)

const (
	defaultDispatchBatch = 50
	defaultMaxAttempts   = 5
	baseRetryDelay       = time.Minute
	maxRetryDelay        = time.Hour
	// claimLease is how long a claimed row stays hidden from other
	// dispatchers. A row whose outcome could not be recorded is retried
	// after it expires.
	claimLease = 5 * time.Minute
)

type txRunner interface {
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type DispatcherParams struct {
	DB          txRunner
	Repo        Repository
	Renderer    *Renderer
	Sender      Sender
	Logger      *logger.Logger
	Metrics     *metrics.HotelMetrics
	BatchSize   int
	MaxAttempts int
	Now         func() time.Time
}

// Dispatcher drains due outbox rows through the sender.
type Dispatcher struct {
	db          txRunner
	repo        Repository
	renderer    *Renderer
	sender      Sender
	logg        *logger.Logger
	metrics     *metrics.HotelMetrics
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

// DispatchResult counts rows handled by one Dispatch call.
type DispatchResult struct {
	Sent     int
	Retrying int
	Failed   int
}

func (r DispatchResult) Processed() int { return r.Sent + r.Retrying + r.Failed }

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repo == nil {
		return nil, errors.New("notification repository is required")
	}
	if params.Renderer == nil {
		return nil, errors.New("notification renderer is required")
	}
	if params.Sender == nil {
		return nil, errors.New("notification sender is required")
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultDispatchBatch
	}
	if params.MaxAttempts <= 0 {
		params.MaxAttempts = defaultMaxAttempts
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Dispatcher{
		db:          params.DB,
		repo:        params.Repo,
		renderer:    params.Renderer,
		sender:      params.Sender,
		logg:        orDiscard(params.Logger),
		metrics:     params.Metrics,
		batchSize:   params.BatchSize,
		maxAttempts: params.MaxAttempts,
		now:         params.Now,
	}, nil
}

// Dispatch sends up to one batch of due notifications. Rows are claimed in
// a short transaction and each outcome is committed on its own, so a
// storage failure on one row never rolls back rows already marked sent.
// Delivery is at-least-once: a row that was sent but could not be marked
// is sent again after claimLease. Delivery failures are recorded on the
// rows and logged; storage failures are returned.
func (d *Dispatcher) Dispatch(ctx context.Context) (DispatchResult, error) {
	var result DispatchResult

	rows, err := d.claim(ctx)
	if err != nil {
		d.logg.Error(ctx, "notifications.dispatch_failed", err)
		return result, err
	}

	var deliveryErrs, storeErrs error
	for i := range rows {
		row := rows[i]
		sendErr := d.deliver(ctx, row)
		now := d.now().UTC()
		if sendErr == nil {
			if err := d.repo.MarkSent(ctx, row.ID, now); err != nil {
				storeErrs = multierr.Append(storeErrs, fmt.Errorf("mark %s sent: %w", row.ID, err))
				continue
			}
			result.Sent++
			d.metrics.ObserveNotification(string(row.Kind), "sent")
			continue
		}

		deliveryErrs = multierr.Append(deliveryErrs, fmt.Errorf("%s: %w", row.ID, sendErr))
		attempts := row.AttemptCount + 1
		terminal := attempts >= d.maxAttempts || permanent(sendErr)
		if err := d.repo.MarkAttemptFailed(ctx, row.ID, sendErr.Error(), now.Add(retryDelay(attempts)), terminal); err != nil {
			storeErrs = multierr.Append(storeErrs, fmt.Errorf("mark %s attempt: %w", row.ID, err))
			continue
		}
		if terminal {
			result.Failed++
			d.metrics.ObserveNotification(string(row.Kind), "failed")
		} else {
			result.Retrying++
			d.metrics.ObserveNotification(string(row.Kind), "retry")
		}
	}

	if deliveryErrs != nil {
		fields := map[string]any{
			"sent":     result.Sent,
			"retrying": result.Retrying,
			"failed":   result.Failed,
		}
		d.logg.Error(d.logg.WithFields(ctx, fields), "notifications.delivery_errors", deliveryErrs)
	}
	if storeErrs != nil {
		err := pkgerrors.Wrap(pkgerrors.CodeDependency, storeErrs, "record notification outcome")
		d.logg.Error(ctx, "notifications.dispatch_failed", err)
		return result, err
	}
	return result, nil
}

// claim fetches due rows and leases them in one transaction.
func (d *Dispatcher) claim(ctx context.Context) ([]models.NotificationOutbox, error) {
	var rows []models.NotificationOutbox
	err := d.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := d.repo.WithTx(tx)
		now := d.now().UTC()
		due, err := repo.FetchDue(ctx, now, d.batchSize)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch due notifications")
		}
		ids := make([]uuid.UUID, 0, len(due))
		for _, row := range due {
			ids = append(ids, row.ID)
		}
		if err := repo.Lease(ctx, ids, now.Add(claimLease)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lease notifications")
		}
		rows = due
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *Dispatcher) deliver(ctx context.Context, row models.NotificationOutbox) error {
	fields := map[string]string{}
	if row.Fields != "" {
		if err := json.Unmarshal([]byte(row.Fields), &fields); err != nil {
			return &renderError{err: fmt.Errorf("decode fields: %w", err)}
		}
	}
	rendered, err := d.renderer.Render(row.Kind, fields)
	if err != nil {
		return &renderError{err: err}
	}
	return d.sender.Send(ctx, message(row.Recipient, fields, rendered))
}

// renderError marks failures that retrying cannot fix.
type renderError struct {
	err error
}

func (e *renderError) Error() string { return e.err.Error() }
func (e *renderError) Unwrap() error { return e.err }

func permanent(err error) bool {
	var rerr *renderError
	if errors.As(err, &rerr) {
		return true
	}
	var status *sendgrid.StatusError
	if errors.As(err, &status) {
		return !status.Retryable()
	}
	return false
}

func retryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := baseRetryDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
