package notifications

import (
	"context"
	"io"
	"net/mail"
	"strings"

	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
)

// Request asks for a templated email to be delivered to one recipient.
type Request struct {
	Kind      enums.TemplateKind
	Recipient string
	Fields    map[string]string
}

// Notifier delivers notification requests. Failures are returned as
// CodeNotificationDelivery errors.
type Notifier interface {
	Notify(ctx context.Context, req Request) error
}

// Validate checks the kind and recipient address.
func (r Request) Validate() error {
	if !r.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown notification template").
			WithDetails(map[string]any{"kind": string(r.Kind)})
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Recipient)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification recipient")
	}
	return nil
}

func deliveryError(err error, req Request) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeNotificationDelivery) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeNotificationDelivery, err, "notification delivery failed").
		WithDetails(map[string]any{"kind": string(req.Kind)})
}

func orDiscard(logg *logger.Logger) *logger.Logger {
	if logg != nil {
		return logg
	}
	return logger.New(logger.Options{ServiceName: "notifications", Output: io.Discard})
}
