package notifications

import (
	"context"
	"strings"

	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/metrics"
	"github.com/selvamresidency/hotel-backend/pkg/sendgrid"
)

// Sender hands a rendered message to the email provider.
type Sender interface {
	Send(ctx context.Context, msg sendgrid.Message) error
}

// Direct renders and sends synchronously, without an outbox.
type Direct struct {
	renderer *Renderer
	sender   Sender
	logg     *logger.Logger
	metrics  *metrics.HotelMetrics
}

func NewDirect(renderer *Renderer, sender Sender, logg *logger.Logger, m *metrics.HotelMetrics) (*Direct, error) {
	if renderer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification renderer required")
	}
	if sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification sender required")
	}
	return &Direct{renderer: renderer, sender: sender, logg: orDiscard(logg), metrics: m}, nil
}

func (d *Direct) Notify(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	msg, err := d.renderer.Render(req.Kind, req.Fields)
	if err != nil {
		return deliveryError(err, req)
	}
	if err := d.sender.Send(ctx, message(req.Recipient, req.Fields, msg)); err != nil {
		d.metrics.ObserveNotification(string(req.Kind), "failed")
		d.logg.Error(d.logg.WithField(ctx, "kind", string(req.Kind)), "notifications.send_failed", err)
		return deliveryError(err, req)
	}
	d.metrics.ObserveNotification(string(req.Kind), "sent")
	return nil
}

func message(recipient string, fields map[string]string, r Rendered) sendgrid.Message {
	return sendgrid.Message{
		ToEmail:   strings.TrimSpace(recipient),
		ToName:    fields["to_name"],
		Subject:   r.Subject,
		PlainText: r.PlainText,
		HTML:      r.HTML,
	}
}

// Discard drops every request. Used when no email provider is configured.
type Discard struct {
	logg *logger.Logger
}

func NewDiscard(logg *logger.Logger) *Discard {
	return &Discard{logg: orDiscard(logg)}
}

func (d *Discard) Notify(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	d.logg.Warn(d.logg.WithField(ctx, "kind", string(req.Kind)), "notifications.discarded")
	return nil
}
