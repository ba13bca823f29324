package bookings

import (
	"context"
	"errors"
	"io"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/selvamresidency/hotel-backend/internal/inventory"
	"github.com/selvamresidency/hotel-backend/internal/notifications"
	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/metrics"
)

// Service drives a booking from the public form through admin review.
type Service interface {
	Create(ctx context.Context, in CreateInput) (*Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, order enums.BookingSort) ([]Booking, error)
	Stats(ctx context.Context) (*Stats, error)
	Approve(ctx context.Context, id string) (*Decision, error)
	Reject(ctx context.Context, id, reason string) (*Decision, error)
	Delete(ctx context.Context, id string) error
	PendingOlderThan(ctx context.Context, cutoff time.Time) ([]Booking, error)
}

// Inventory is the part of the inventory service bookings depend on.
type Inventory interface {
	QuoteStay(ctx context.Context, id rooms.ID, checkIn, checkOut dates.Date) (*inventory.StayQuote, error)
	DecrementForStay(ctx context.Context, id rooms.ID, checkIn, checkOut dates.Date) (*inventory.StayDecrement, error)
}

type ServiceParams struct {
	Repo       Repository
	Inventory  Inventory
	Notifier   notifications.Notifier
	HotelEmail string
	Location   *time.Location
	Logger     *logger.Logger
	Metrics    *metrics.HotelMetrics
	Now        func() time.Time
}

type service struct {
	repo       Repository
	inventory  Inventory
	notifier   notifications.Notifier
	hotelEmail string
	loc        *time.Location
	logg       *logger.Logger
	metrics    *metrics.HotelMetrics
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "booking repository required")
	}
	if params.Inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory service required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	if params.Location == nil {
		params.Location = time.UTC
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "bookings", Output: io.Discard})
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:       params.Repo,
		inventory:  params.Inventory,
		notifier:   params.Notifier,
		hotelEmail: strings.TrimSpace(params.HotelEmail),
		loc:        params.Location,
		logg:       params.Logger,
		metrics:    params.Metrics,
		now:        params.Now,
	}, nil
}

func (s *service) today() dates.Date {
	return dates.Today(s.now(), s.loc)
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Booking, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if in.CheckIn.IsZero() || in.CheckOut.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "check-in and check-out dates are required")
	}
	if in.CheckIn.Before(s.today()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "check-in date is in the past").
			WithDetails(map[string]any{"check_in": in.CheckIn.String()})
	}

	quote, err := s.inventory.QuoteStay(ctx, in.RoomID, in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	if !quote.Bookable {
		nights := make([]map[string]any, 0)
		for _, n := range quote.UnavailableNights() {
			nights = append(nights, map[string]any{
				"date":    n.Date.String(),
				"reason":  string(n.Reason),
				"message": n.Reason.Message(),
			})
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "room is not available for the selected dates").
			WithDetails(map[string]any{"room_id": int(in.RoomID), "nights": nights})
	}

	booking := &Booking{
		ID:              uuid.NewString(),
		RoomID:          in.RoomID,
		RoomCategory:    quote.RoomName,
		Name:            in.Name,
		Email:           in.Email,
		Phone:           strings.TrimSpace(in.Phone),
		Address:         strings.TrimSpace(in.Address),
		CheckIn:         in.CheckIn,
		CheckOut:        in.CheckOut,
		NumberOfNights:  quote.NumberOfNights,
		RoomPrice:       quote.RoomPrice,
		TotalPrice:      quote.TotalPrice,
		SpecialRequests: strings.TrimSpace(in.SpecialRequests),
		Status:          enums.BookingStatusPending,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, err
	}
	ctx = s.logg.WithBookingID(ctx, booking.ID)
	s.logg.Info(s.logg.WithRoomID(ctx, int(booking.RoomID)), "bookings.created")

	fields := booking.templateFields()
	var notifyErr error
	if s.hotelEmail != "" {
		notifyErr = s.notify(ctx, enums.TemplateKindNewBooking, s.hotelEmail, fields)
	}
	if err := s.notify(ctx, enums.TemplateKindBookingReceived, booking.Email, fields); err != nil && notifyErr == nil {
		notifyErr = err
	}

	emailState := emailPatch{EmailSent: notifyErr == nil}
	if notifyErr != nil {
		emailState.EmailError = notifyErr.Error()
	}
	if err := s.repo.Update(ctx, booking.ID, emailState); err != nil {
		s.logg.Error(ctx, "bookings.email_state_failed", err)
	} else {
		booking.EmailSent = emailState.EmailSent
		booking.EmailError = emailState.EmailError
	}
	return booking, nil
}

func (s *service) Get(ctx context.Context, id string) (*Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, order enums.BookingSort) ([]Booking, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sortBookings(list, order)
	return list, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return computeStats(list, s.today()), nil
}

func (s *service) Approve(ctx context.Context, id string) (*Decision, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithBookingID(ctx, booking.ID)
	decision := &Decision{Booking: booking}
	switch booking.Status {
	case enums.BookingStatusApproved:
		if !booking.InventoryPending {
			return decision, nil
		}
		s.logg.Info(ctx, "bookings.approve_retrying_decrement")
	case enums.BookingStatusRejected:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking was already rejected").
			WithDetails(map[string]any{"booking_id": booking.ID, "status": string(booking.Status)})
	default:
		decidedAt := s.now().UTC()
		patch := approvalPatch{Status: enums.BookingStatusApproved, DecidedAt: &decidedAt, InventoryPending: true}
		if err := s.repo.Update(ctx, booking.ID, patch); err != nil {
			return nil, err
		}
		booking.Status = enums.BookingStatusApproved
		booking.DecidedAt = &decidedAt
		booking.InventoryPending = true
		decision.Changed = true
		s.metrics.ObserveBookingDecision(string(enums.BookingStatusApproved))
		s.logg.Info(ctx, "bookings.approved")
	}

	stay, err := s.inventory.DecrementForStay(ctx, booking.RoomID, booking.CheckIn, booking.CheckOut)
	decision.Inventory = stay
	settle := settlePatch{}
	if err != nil {
		var shortfall *inventory.InsufficientInventoryError
		if !errors.As(err, &shortfall) {
			// inventory_pending stays set so the next Approve retries.
			s.logg.Error(ctx, "bookings.approve_decrement_failed", err)
			return nil, err
		}
		decision.Shortfall = shortfall
		decision.warn(err)
		settle.InventoryShortfall = shortfall.Dates
		booking.InventoryShortfall = shortfall.Dates
	}
	if err := s.repo.Update(ctx, booking.ID, settle); err != nil {
		s.logg.Error(ctx, "bookings.inventory_settle_failed", err)
		decision.warn(err)
	} else {
		booking.InventoryPending = false
	}

	fields := booking.templateFields()
	fields["booking_status"] = "APPROVED"
	if err := s.notify(ctx, enums.TemplateKindApproval, booking.Email, fields); err != nil {
		decision.Notify = err
		decision.warn(err)
	}
	return decision, nil
}

func (s *service) Reject(ctx context.Context, id, reason string) (*Decision, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithBookingID(ctx, booking.ID)
	switch booking.Status {
	case enums.BookingStatusRejected:
		return &Decision{Booking: booking}, nil
	case enums.BookingStatusApproved:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking was already approved").
			WithDetails(map[string]any{"booking_id": booking.ID, "status": string(booking.Status)})
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectionReason
	}
	decidedAt := s.now().UTC()
	patch := statusPatch{Status: enums.BookingStatusRejected, DecidedAt: &decidedAt, RejectionReason: reason}
	if err := s.repo.Update(ctx, booking.ID, patch); err != nil {
		return nil, err
	}
	booking.Status = enums.BookingStatusRejected
	booking.DecidedAt = &decidedAt
	booking.RejectionReason = reason
	s.metrics.ObserveBookingDecision(string(enums.BookingStatusRejected))
	s.logg.Info(ctx, "bookings.rejected")

	decision := &Decision{Booking: booking, Changed: true}
	fields := booking.templateFields()
	fields["booking_status"] = "REJECTED"
	fields["rejection_reason"] = reason
	if err := s.notify(ctx, enums.TemplateKindRejection, booking.Email, fields); err != nil {
		decision.Notify = err
		decision.warn(err)
	}
	return decision, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithBookingID(ctx, id), "bookings.deleted")
	return nil
}

// PendingOlderThan returns pending bookings created before cutoff, oldest first.
func (s *service) PendingOlderThan(ctx context.Context, cutoff time.Time) ([]Booking, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Booking, 0)
	for _, b := range list {
		if b.Status == enums.BookingStatusPending && b.CreatedAt.Before(cutoff) {
			out = append(out, b)
		}
	}
	sortBookings(out, enums.BookingSortOldest)
	return out, nil
}

// notify never undoes a committed change; failures are logged, counted
// and handed back for the caller to record.
func (s *service) notify(ctx context.Context, kind enums.TemplateKind, recipient string, fields map[string]string) error {
	err := s.notifier.Notify(ctx, notifications.Request{Kind: kind, Recipient: recipient, Fields: fields})
	if err != nil {
		s.metrics.ObserveNotification(string(kind), "error")
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"kind": string(kind), "error": err.Error()}), "bookings.notify_failed")
		return err
	}
	return nil
}

type statusPatch struct {
	Status          enums.BookingStatus `json:"status"`
	DecidedAt       *time.Time          `json:"decided_at,omitempty"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
}

type emailPatch struct {
	EmailSent  bool   `json:"email_sent"`
	EmailError string `json:"email_error"`
}

type approvalPatch struct {
	Status           enums.BookingStatus `json:"status"`
	DecidedAt        *time.Time          `json:"decided_at"`
	InventoryPending bool                `json:"inventory_pending"`
}

// settlePatch clears the pending marker once the stay was decremented.
type settlePatch struct {
	InventoryPending   bool         `json:"inventory_pending"`
	InventoryShortfall []dates.Date `json:"inventory_shortfall,omitempty"`
}

func sortBookings(list []Booking, order enums.BookingSort) {
	less := func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) }
	switch order {
	case enums.BookingSortOldest:
		less = func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) }
	case enums.BookingSortUpcoming, enums.BookingSortCheckIn:
		less = func(i, j int) bool { return list[i].CheckIn.Before(list[j].CheckIn) }
	case enums.BookingSortRevenue:
		less = func(i, j int) bool { return list[i].TotalPrice > list[j].TotalPrice }
	}
	sort.SliceStable(list, less)
}

func computeStats(list []Booking, today dates.Date) *Stats {
	stats := &Stats{Total: len(list)}
	for _, b := range list {
		switch b.Status {
		case enums.BookingStatusPending:
			stats.Pending++
		case enums.BookingStatusApproved:
			stats.Approved++
			stats.ApprovedRevenue += b.TotalPrice
		case enums.BookingStatusRejected:
			stats.Rejected++
		}
		switch {
		case b.CheckIn.After(today):
			stats.Upcoming++
		case b.CheckIn.Before(today):
			stats.Past++
		default:
			stats.Today++
		}
		stats.TotalRevenue += b.TotalPrice
	}
	return stats
}
