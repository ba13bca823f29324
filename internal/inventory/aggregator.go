package inventory

import (
	"context"

	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
)

// Snapshot is the presentation view of one room on one date.
type Snapshot struct {
	ID             rooms.ID            `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Image          string              `json:"image"`
	Rate           int                 `json:"rate"`
	AvailableRooms int                 `json:"available_rooms"`
	IsBlocked      bool                `json:"is_blocked"`
	CanBook        bool                `json:"can_book"`
	BookingReason  enums.BookingReason `json:"booking_reason"`
	BookingMessage string              `json:"booking_message"`
}

// DayAvailability is every room's snapshot for one date.
type DayAvailability struct {
	Date             dates.Date `json:"date"`
	Closed           bool       `json:"closed"`
	AvailableRoomIDs []rooms.ID `json:"available_room_ids"`
	Rooms            []Snapshot `json:"rooms"`
}

// NightQuote prices and checks one night of a prospective stay.
type NightQuote struct {
	Date    dates.Date          `json:"date"`
	Rate    int                 `json:"rate"`
	CanBook bool                `json:"can_book"`
	Reason  enums.BookingReason `json:"reason"`
}

// StayQuote covers every night in [checkIn, checkOut). RoomPrice is the
// first night's rate; TotalPrice sums all nights.
type StayQuote struct {
	RoomID         rooms.ID     `json:"room_id"`
	RoomName       string       `json:"room_name"`
	CheckIn        dates.Date   `json:"check_in"`
	CheckOut       dates.Date   `json:"check_out"`
	NumberOfNights int          `json:"number_of_nights"`
	RoomPrice      int          `json:"room_price"`
	TotalPrice     int          `json:"total_price"`
	Bookable       bool         `json:"bookable"`
	Nights         []NightQuote `json:"nights"`
}

// UnavailableNights lists the nights that failed CanBook.
func (q *StayQuote) UnavailableNights() []NightQuote {
	var out []NightQuote
	for _, n := range q.Nights {
		if !n.CanBook {
			out = append(out, n)
		}
	}
	return out
}

func (d Day) Snapshot(rt rooms.RoomType) Snapshot {
	verdict := d.CanBook(rt.ID)
	return Snapshot{
		ID:             rt.ID,
		Name:           rt.Name,
		Description:    rt.Description,
		Image:          rt.Image,
		Rate:           d.Rate(rt.ID),
		AvailableRooms: d.Inventory(rt.ID),
		IsBlocked:      d.Blocked(rt.ID),
		CanBook:        verdict.CanBook,
		BookingReason:  verdict.Reason,
		BookingMessage: verdict.Message(),
	}
}

func (d Day) Availability() DayAvailability {
	all := d.catalog.All()
	snaps := make([]Snapshot, 0, len(all))
	for _, rt := range all {
		snaps = append(snaps, d.Snapshot(rt))
	}
	available := d.AvailableRoomIDs()
	return DayAvailability{
		Date:             d.Date(),
		Closed:           len(available) == 0,
		AvailableRoomIDs: available,
		Rooms:            snaps,
	}
}

func (r *Resolver) AvailableRoomIDs(ctx context.Context, date dates.Date) ([]rooms.ID, error) {
	day, err := r.Day(ctx, date)
	if err != nil {
		return nil, err
	}
	return day.AvailableRoomIDs(), nil
}

func (r *Resolver) RoomSnapshot(ctx context.Context, id rooms.ID, date dates.Date) (*Snapshot, error) {
	rt, ok := r.catalog.Lookup(id)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "room type not found")
	}
	day, err := r.Day(ctx, date)
	if err != nil {
		return nil, err
	}
	snap := day.Snapshot(rt)
	return &snap, nil
}

func (r *Resolver) DayAvailability(ctx context.Context, date dates.Date) (*DayAvailability, error) {
	day, err := r.Day(ctx, date)
	if err != nil {
		return nil, err
	}
	out := day.Availability()
	return &out, nil
}

func (r *Resolver) QuoteStay(ctx context.Context, id rooms.ID, checkIn, checkOut dates.Date) (*StayQuote, error) {
	rt, ok := r.catalog.Lookup(id)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown room type").
			WithDetails(map[string]any{"room_id": int(id)})
	}
	nights, err := dates.Nights(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	quote := &StayQuote{
		RoomID:         id,
		RoomName:       rt.Name,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		NumberOfNights: len(nights),
		Bookable:       true,
		Nights:         make([]NightQuote, 0, len(nights)),
	}
	for i, night := range nights {
		day, err := r.Day(ctx, night)
		if err != nil {
			return nil, err
		}
		verdict := day.CanBook(id)
		rate := day.Rate(id)
		quote.Nights = append(quote.Nights, NightQuote{
			Date:    night,
			Rate:    rate,
			CanBook: verdict.CanBook,
			Reason:  verdict.Reason,
		})
		if i == 0 {
			quote.RoomPrice = rate
		}
		quote.TotalPrice += rate
		if !verdict.CanBook {
			quote.Bookable = false
		}
	}
	return quote, nil
}
