package enums

// BookingReason explains a canBook verdict for one room on one date.
type BookingReason string

const (
	BookingReasonBlocked     BookingReason = "BLOCKED"
	BookingReasonNoInventory BookingReason = "NO_INVENTORY"
	BookingReasonOK          BookingReason = "OK"
)

// Message is the guest-facing wording shown next to a room.
func (r BookingReason) Message() string {
	switch r {
	case BookingReasonBlocked:
		return "This room is blocked for the selected date"
	case BookingReasonNoInventory:
		return "No rooms available for the selected date"
	case BookingReasonOK:
		return "Room is available for booking"
	default:
		return ""
	}
}
