package enums

import "fmt"

// TemplateKind identifies the email template a notification renders with.
type TemplateKind string

const (
	TemplateKindApproval        TemplateKind = "APPROVAL"
	TemplateKindRejection       TemplateKind = "REJECTION"
	TemplateKindNewBooking      TemplateKind = "NEW_BOOKING"
	TemplateKindBookingReceived TemplateKind = "BOOKING_RECEIVED"
	TemplateKindPendingReminder TemplateKind = "PENDING_REMINDER"
)

var validTemplateKinds = []TemplateKind{
	TemplateKindApproval,
	TemplateKindRejection,
	TemplateKindNewBooking,
	TemplateKindBookingReceived,
	TemplateKindPendingReminder,
}

// IsValid checks whether the given kind matches the canonical enum.
func (k TemplateKind) IsValid() bool {
	for _, candidate := range validTemplateKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTemplateKind converts raw strings into TemplateKind.
func ParseTemplateKind(value string) (TemplateKind, error) {
	for _, candidate := range validTemplateKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid template kind %q", value)
}

// NotificationStatus maps to the notification_outbox.status column.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)
