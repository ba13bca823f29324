package enums

import "fmt"

// BookingStatus tracks a booking through admin review.
type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "pending"
	BookingStatusApproved BookingStatus = "approved"
	BookingStatusRejected BookingStatus = "rejected"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusApproved,
	BookingStatusRejected,
}

// IsValid checks whether the given status matches the canonical enum.
func (s BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further decision can be taken.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusApproved || s == BookingStatusRejected
}

// ParseBookingStatus converts raw strings into BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}
