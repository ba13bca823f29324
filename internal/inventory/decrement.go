package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/metrics"
)

// StayDecrement reports which nights of an approved stay lost a unit and
// which could not because stock was already zero.
type StayDecrement struct {
	RoomID      rooms.ID     `json:"room_id"`
	Decremented []dates.Date `json:"decremented"`
	Shortfalls  []dates.Date `json:"shortfalls,omitempty"`
}

// InsufficientInventoryError lists the nights that had no unit to take.
// It unwraps to a CodeInsufficientInventory error for the HTTP layer.
type InsufficientInventoryError struct {
	RoomID rooms.ID
	Dates  []dates.Date
	coded  *pkgerrors.Error
}

func NewInsufficientInventoryError(roomID rooms.ID, nights []dates.Date) *InsufficientInventoryError {
	list := dates.Strings(nights)
	return &InsufficientInventoryError{
		RoomID: roomID,
		Dates:  nights,
		coded: pkgerrors.New(pkgerrors.CodeInsufficientInventory, "no inventory left for some nights").
			WithDetails(map[string]any{"room_id": int(roomID), "dates": list}),
	}
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for room %d on %s", e.RoomID, strings.Join(dates.Strings(e.Dates), ", "))
}

func (e *InsufficientInventoryError) Unwrap() error {
	return e.coded
}

type Decrementer struct {
	records Repository
	catalog *rooms.Catalog
	logg    *logger.Logger
	metrics *metrics.HotelMetrics
}

func NewDecrementer(records Repository, catalog *rooms.Catalog, logg *logger.Logger, m *metrics.HotelMetrics) (*Decrementer, error) {
	if records == nil {
		return nil, fmt.Errorf("daily record repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("room catalog required")
	}
	return &Decrementer{records: records, catalog: catalog, logg: logg, metrics: m}, nil
}

// DecrementForStay takes one unit from every night in [checkIn, checkOut),
// in date order. A night already at zero is skipped and reported through
// *InsufficientInventoryError once every other night has been written. A
// store failure stops immediately; nights already written stay written.
func (d *Decrementer) DecrementForStay(ctx context.Context, roomID rooms.ID, checkIn, checkOut dates.Date) (*StayDecrement, error) {
	if !d.catalog.Contains(roomID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown room type").
			WithDetails(map[string]any{"room_id": int(roomID)})
	}
	nights, err := dates.Nights(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	result := &StayDecrement{RoomID: roomID, Decremented: make([]dates.Date, 0, len(nights))}
	for _, night := range nights {
		rec, err := d.records.Get(ctx, night)
		if err != nil {
			return result, err
		}
		current := NewDay(d.catalog, rec).Inventory(roomID)
		if current <= 0 {
			result.Shortfalls = append(result.Shortfalls, night)
			continue
		}
		patch := Patch{Inventory: map[rooms.ID]int{roomID: current - 1}}
		if err := d.records.Merge(ctx, night, patch); err != nil {
			return result, err
		}
		result.Decremented = append(result.Decremented, night)
	}

	if len(result.Shortfalls) > 0 {
		if d.logg != nil {
			logCtx := d.logg.WithRoomID(ctx, int(roomID))
			logCtx = d.logg.WithField(logCtx, "shortfall_dates", dates.Strings(result.Shortfalls))
			d.logg.Warn(logCtx, "inventory.decrement.shortfall")
		}
		d.metrics.ObserveShortfall(int(roomID), len(result.Shortfalls))
		return result, NewInsufficientInventoryError(roomID, result.Shortfalls)
	}
	return result, nil
}
