package inventory

import (
	"context"
	"fmt"

	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/metrics"
)

// Service is the inventory surface used by the HTTP layer and bookings.
type Service interface {
	Rooms() []rooms.RoomType
	AvailableRoomIDs(ctx context.Context, date dates.Date) ([]rooms.ID, error)
	DayAvailability(ctx context.Context, date dates.Date) (*DayAvailability, error)
	RoomSnapshot(ctx context.Context, id rooms.ID, date dates.Date) (*Snapshot, error)
	QuoteStay(ctx context.Context, id rooms.ID, checkIn, checkOut dates.Date) (*StayQuote, error)
	BulkUpdate(ctx context.Context, in BulkUpdate) (*BulkResult, error)
	DecrementForStay(ctx context.Context, id rooms.ID, checkIn, checkOut dates.Date) (*StayDecrement, error)
	GetDay(ctx context.Context, date dates.Date) (*DayOverview, error)
	SaveDay(ctx context.Context, date dates.Date, overrides Patch) (*DayOverview, error)
	ResetDay(ctx context.Context, date dates.Date) error
}

// DayOverview pairs the stored overrides with what guests see.
type DayOverview struct {
	Record       *DailyRecord    `json:"overrides"`
	Availability DayAvailability `json:"availability"`
	AllBlocked   bool            `json:"all_blocked"`
}

type ServiceParams struct {
	Records Repository
	Catalog *rooms.Catalog
	Bulk    BulkOptions
	Logger  *logger.Logger
	Metrics *metrics.HotelMetrics
}

type service struct {
	records   Repository
	catalog   *rooms.Catalog
	resolver  *Resolver
	bulk      *BulkMutator
	decrement *Decrementer
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Catalog == nil {
		params.Catalog = rooms.DefaultCatalog()
	}
	resolver, err := NewResolver(params.Records, params.Catalog)
	if err != nil {
		return nil, err
	}
	bulk, err := NewBulkMutator(params.Records, params.Catalog, params.Bulk, params.Logger, params.Metrics)
	if err != nil {
		return nil, err
	}
	decrement, err := NewDecrementer(params.Records, params.Catalog, params.Logger, params.Metrics)
	if err != nil {
		return nil, err
	}
	return &service{
		records:   params.Records,
		catalog:   params.Catalog,
		resolver:  resolver,
		bulk:      bulk,
		decrement: decrement,
		logg:      params.Logger,
	}, nil
}

func (s *service) Rooms() []rooms.RoomType {
	return s.catalog.All()
}

func (s *service) AvailableRoomIDs(ctx context.Context, date dates.Date) ([]rooms.ID, error) {
	return s.resolver.AvailableRoomIDs(ctx, date)
}

func (s *service) DayAvailability(ctx context.Context, date dates.Date) (*DayAvailability, error) {
	return s.resolver.DayAvailability(ctx, date)
}

func (s *service) RoomSnapshot(ctx context.Context, id rooms.ID, date dates.Date) (*Snapshot, error) {
	return s.resolver.RoomSnapshot(ctx, id, date)
}

func (s *service) QuoteStay(ctx context.Context, id rooms.ID, checkIn, checkOut dates.Date) (*StayQuote, error) {
	return s.resolver.QuoteStay(ctx, id, checkIn, checkOut)
}

func (s *service) BulkUpdate(ctx context.Context, in BulkUpdate) (*BulkResult, error) {
	return s.bulk.Apply(ctx, in)
}

func (s *service) DecrementForStay(ctx context.Context, id rooms.ID, checkIn, checkOut dates.Date) (*StayDecrement, error) {
	return s.decrement.DecrementForStay(ctx, id, checkIn, checkOut)
}

func (s *service) GetDay(ctx context.Context, date dates.Date) (*DayOverview, error) {
	rec, err := s.records.Get(ctx, date)
	if err != nil {
		return nil, err
	}
	day := NewDay(s.catalog, rec)
	return &DayOverview{Record: rec, Availability: day.Availability(), AllBlocked: day.AllBlocked()}, nil
}

// SaveDay merges admin edits for a single date.
func (s *service) SaveDay(ctx context.Context, date dates.Date, overrides Patch) (*DayOverview, error) {
	if date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	if overrides.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no changes supplied")
	}
	if err := s.validateOverrides(overrides); err != nil {
		return nil, err
	}
	if err := s.records.Merge(ctx, date, overrides); err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithDate(ctx, date.String())
		s.logg.Info(logCtx, "inventory.day.saved")
	}
	return s.GetDay(ctx, date)
}

func (s *service) ResetDay(ctx context.Context, date dates.Date) error {
	if err := s.records.Reset(ctx, date); err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithDate(ctx, date.String()), "inventory.day.reset")
	}
	return nil
}

func (s *service) validateOverrides(p Patch) error {
	check := func(id rooms.ID) error {
		if !s.catalog.Contains(id) {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown room type").
				WithDetails(map[string]any{"room_id": int(id)})
		}
		return nil
	}
	for id, rate := range p.Rates {
		if err := check(id); err != nil {
			return err
		}
		if rate < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("rate for room %d must not be negative", id))
		}
	}
	for id, units := range p.Inventory {
		if err := check(id); err != nil {
			return err
		}
		if units < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("inventory for room %d must not be negative", id))
		}
	}
	for id := range p.Blocking {
		if err := check(id); err != nil {
			return err
		}
	}
	return nil
}
