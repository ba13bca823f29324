package inventory

import (
	"context"
	"fmt"

	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
)

// Eligibility is the canBook verdict for one room on one date.
type Eligibility struct {
	CanBook bool                `json:"can_book"`
	Reason  enums.BookingReason `json:"reason"`
}

func (e Eligibility) Message() string {
	return e.Reason.Message()
}

// Day overlays one DailyRecord onto the catalog. It performs no I/O.
type Day struct {
	catalog *rooms.Catalog
	record  *DailyRecord
}

func NewDay(catalog *rooms.Catalog, record *DailyRecord) Day {
	if record == nil {
		record = NewDailyRecord(dates.Date{})
	}
	return Day{catalog: catalog, record: record}
}

func (d Day) Date() dates.Date {
	return d.record.Date
}

func (d Day) Rate(id rooms.ID) int {
	rate, ok := d.record.Rates[id]
	if !ok {
		rate = d.catalog.DefaultRate(id)
	}
	return max(rate, 0)
}

func (d Day) Inventory(id rooms.ID) int {
	units, ok := d.record.Inventory[id]
	if !ok {
		units = d.catalog.TotalUnits(id)
	}
	return max(units, 0)
}

func (d Day) Blocked(id rooms.ID) bool {
	return d.record.Blocking[id]
}

// CanBook checks blocking before stock, so a blocked room reports BLOCKED
// even when it also has no units left.
func (d Day) CanBook(id rooms.ID) Eligibility {
	if d.Blocked(id) {
		return Eligibility{CanBook: false, Reason: enums.BookingReasonBlocked}
	}
	if d.Inventory(id) <= 0 {
		return Eligibility{CanBook: false, Reason: enums.BookingReasonNoInventory}
	}
	return Eligibility{CanBook: true, Reason: enums.BookingReasonOK}
}

// AvailableRoomIDs keeps catalog ids, ascending, that pass CanBook.
func (d Day) AvailableRoomIDs() []rooms.ID {
	out := []rooms.ID{}
	for _, id := range d.catalog.IDs() {
		if d.CanBook(id).CanBook {
			out = append(out, id)
		}
	}
	return out
}

// Closed means no room type can be booked, whether blocked or sold out.
func (d Day) Closed() bool {
	return len(d.AvailableRoomIDs()) == 0
}

// AllBlocked is the stricter reading used by the admin calendar to tell a
// deliberate closure apart from a sell-out.
func (d Day) AllBlocked() bool {
	for _, id := range d.catalog.IDs() {
		if !d.Blocked(id) {
			return false
		}
	}
	return true
}

// Resolver fetches a daily record and evaluates it.
type Resolver struct {
	records Repository
	catalog *rooms.Catalog
}

func NewResolver(records Repository, catalog *rooms.Catalog) (*Resolver, error) {
	if records == nil {
		return nil, fmt.Errorf("daily record repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("room catalog required")
	}
	return &Resolver{records: records, catalog: catalog}, nil
}

func (r *Resolver) Catalog() *rooms.Catalog {
	return r.catalog
}

func (r *Resolver) Day(ctx context.Context, date dates.Date) (Day, error) {
	rec, err := r.records.Get(ctx, date)
	if err != nil {
		return Day{}, err
	}
	return NewDay(r.catalog, rec), nil
}

func (r *Resolver) EffectiveRate(ctx context.Context, id rooms.ID, date dates.Date) (int, error) {
	day, err := r.Day(ctx, date)
	if err != nil {
		return 0, err
	}
	return day.Rate(id), nil
}

func (r *Resolver) EffectiveInventory(ctx context.Context, id rooms.ID, date dates.Date) (int, error) {
	day, err := r.Day(ctx, date)
	if err != nil {
		return 0, err
	}
	return day.Inventory(id), nil
}

func (r *Resolver) IsBlocked(ctx context.Context, id rooms.ID, date dates.Date) (bool, error) {
	day, err := r.Day(ctx, date)
	if err != nil {
		return false, err
	}
	return day.Blocked(id), nil
}

func (r *Resolver) CanBook(ctx context.Context, id rooms.ID, date dates.Date) (Eligibility, error) {
	day, err := r.Day(ctx, date)
	if err != nil {
		return Eligibility{}, err
	}
	return day.CanBook(id), nil
}

func (r *Resolver) IsPropertyClosed(ctx context.Context, date dates.Date) (bool, error) {
	day, err := r.Day(ctx, date)
	if err != nil {
		return false, err
	}
	return day.Closed(), nil
}
