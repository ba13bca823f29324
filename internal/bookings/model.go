package bookings

import (
	"errors"
	"strconv"
	"time"

	"github.com/selvamresidency/hotel-backend/internal/inventory"
	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
)

// Collection holds one document per booking, keyed by booking id.
const Collection = "bookings"

const defaultRejectionReason = "Not available"

type Booking struct {
	ID              string              `json:"id"`
	RoomID          rooms.ID            `json:"room_id"`
	RoomCategory    string              `json:"room_category"`
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	Phone           string              `json:"phone"`
	Address         string              `json:"address"`
	CheckIn         dates.Date          `json:"check_in" validate:"required"`
	CheckOut        dates.Date          `json:"check_out" validate:"required"`
	NumberOfNights  int                 `json:"number_of_nights"`
	RoomPrice       int                 `json:"room_price"`
	TotalPrice      int                 `json:"total_price"`
	SpecialRequests string              `json:"special_requests"`
	Status          enums.BookingStatus `json:"status"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	DecidedAt       *time.Time          `json:"decided_at,omitempty"`
	EmailSent       bool                `json:"email_sent"`
	EmailError      string              `json:"email_error,omitempty"`
	// InventoryShortfall lists nights that had no unit left at approval.
	InventoryShortfall []dates.Date `json:"inventory_shortfall,omitempty"`
	// InventoryPending is set between the approval write and a settled
	// decrement. Approve retries the decrement while it is true.
	InventoryPending bool `json:"inventory_pending,omitempty"`
}

// templateFields builds the parameters shared by every booking email.
func (b *Booking) templateFields() map[string]string {
	return map[string]string{
		"from_name":        b.Name,
		"to_name":          b.Name,
		"email":            b.Email,
		"phone":            b.Phone,
		"address":          b.Address,
		"check_in":         b.CheckIn.String(),
		"check_out":        b.CheckOut.String(),
		"number_of_nights": strconv.Itoa(b.NumberOfNights),
		"price_per_night":  strconv.Itoa(b.RoomPrice),
		"total_price":      strconv.Itoa(b.TotalPrice),
		"special_requests": b.SpecialRequests,
		"room_category":    b.RoomCategory,
	}
}

// CreateInput is what the public booking form submits.
type CreateInput struct {
	RoomID          rooms.ID   `json:"room_id" validate:"required,min=1"`
	Name            string     `json:"name" validate:"required,max=120"`
	Email           string     `json:"email" validate:"required,email,max=254"`
	Phone           string     `json:"phone" validate:"required,min=6,max=32"`
	Address         string     `json:"address" validate:"max=500"`
	CheckIn         dates.Date `json:"check_in" validate:"required"`
	CheckOut        dates.Date `json:"check_out" validate:"required"`
	SpecialRequests string     `json:"special_requests" validate:"max=1000"`
}

// Stats summarises the booking list for the admin dashboard.
type Stats struct {
	Total           int `json:"total"`
	Pending         int `json:"pending"`
	Approved        int `json:"approved"`
	Rejected        int `json:"rejected"`
	Upcoming        int `json:"upcoming"`
	Past            int `json:"past"`
	Today           int `json:"today"`
	TotalRevenue    int `json:"total_revenue"`
	ApprovedRevenue int `json:"approved_revenue"`
}

// Warning is a non-fatal problem raised after a decision was committed.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Decision is the outcome of Approve or Reject. The status change is
// committed even when Shortfall or Notify is set.
type Decision struct {
	Booking *Booking `json:"booking"`
	// Changed is false when the booking already had the requested status.
	Changed   bool                                  `json:"changed"`
	Inventory *inventory.StayDecrement              `json:"inventory,omitempty"`
	Warnings  []Warning                             `json:"warnings"`
	Shortfall *inventory.InsufficientInventoryError `json:"-"`
	Notify    error                                 `json:"-"`
}

func (d *Decision) warn(err error) {
	var coded *pkgerrors.Error
	if errors.As(err, &coded) {
		d.Warnings = append(d.Warnings, Warning{Code: string(coded.Code()), Message: coded.Message(), Details: coded.Details()})
		return
	}
	d.Warnings = append(d.Warnings, Warning{Code: string(pkgerrors.CodeInternal), Message: err.Error()})
}
