package enums

import (
	"fmt"
	"strings"
)

// BookingSort orders the admin booking list.
type BookingSort string

const (
	BookingSortNewest   BookingSort = "newest"
	BookingSortOldest   BookingSort = "oldest"
	BookingSortUpcoming BookingSort = "upcoming"
	BookingSortCheckIn  BookingSort = "checkin"
	BookingSortRevenue  BookingSort = "revenue"
)

var validBookingSorts = []BookingSort{
	BookingSortNewest,
	BookingSortOldest,
	BookingSortUpcoming,
	BookingSortCheckIn,
	BookingSortRevenue,
}

// ParseBookingSort defaults to newest when value is empty.
func ParseBookingSort(value string) (BookingSort, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return BookingSortNewest, nil
	}
	for _, candidate := range validBookingSorts {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking sort %q", value)
}
