package cron

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/selvamresidency/hotel-backend/internal/bookings"
	"github.com/selvamresidency/hotel-backend/internal/notifications"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
)

const (
	defaultPendingAge    = 24 * time.Hour
	reminderMarkerTTL    = 36 * time.Hour
	maxReminderBookingID = 20
)

type pendingBookings interface {
	PendingOlderThan(ctx context.Context, cutoff time.Time) ([]bookings.Booking, error)
}

type markerStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	MarkerKey(parts ...string) string
}

// PendingReminderJobParams configure the daily pending-booking digest.
type PendingReminderJobParams struct {
	Logger     *logger.Logger
	Bookings   pendingBookings
	Notifier   notifications.Notifier
	Markers    markerStore
	HotelEmail string
	Age        time.Duration
	Location   *time.Location
}

type pendingReminderJob struct {
	logg       *logger.Logger
	bookings   pendingBookings
	notifier   notifications.Notifier
	markers    markerStore
	hotelEmail string
	age        time.Duration
	loc        *time.Location
	now        func() time.Time
}

// NewPendingReminderJob builds the job that nudges the hotel about stale
// booking requests.
func NewPendingReminderJob(params PendingReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings service required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Markers == nil {
		return nil, fmt.Errorf("marker store required")
	}
	if strings.TrimSpace(params.HotelEmail) == "" {
		return nil, fmt.Errorf("hotel email required")
	}
	age := params.Age
	if age <= 0 {
		age = defaultPendingAge
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &pendingReminderJob{
		logg:       params.Logger,
		bookings:   params.Bookings,
		notifier:   params.Notifier,
		markers:    params.Markers,
		hotelEmail: params.HotelEmail,
		age:        age,
		loc:        loc,
		now:        time.Now,
	}, nil
}

func (j *pendingReminderJob) Name() string { return "pending-booking-reminder" }

func (j *pendingReminderJob) Run(ctx context.Context) error {
	now := j.now()
	pending, err := j.bookings.PendingOlderThan(ctx, now.Add(-j.age))
	if err != nil {
		return fmt.Errorf("list pending bookings: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	key := j.markers.MarkerKey("pending-reminder", dates.Today(now, j.loc).String())
	first, err := j.markers.SetNX(ctx, key, strconv.Itoa(len(pending)), reminderMarkerTTL)
	if err != nil {
		return fmt.Errorf("claim reminder marker: %w", err)
	}
	if !first {
		return nil
	}

	req := notifications.Request{
		Kind:      enums.TemplateKindPendingReminder,
		Recipient: j.hotelEmail,
		Fields:    reminderFields(pending, j.loc),
	}
	if err := j.notifier.Notify(ctx, req); err != nil {
		// let the next cycle try again today
		if delErr := j.markers.Del(ctx, key); delErr != nil {
			j.logg.Error(ctx, "failed to clear reminder marker", delErr)
		}
		return fmt.Errorf("send pending reminder: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "pending_count", len(pending))
	j.logg.Info(logCtx, "pending booking reminder sent")
	return nil
}

// reminderFields expects pending sorted oldest first.
func reminderFields(pending []bookings.Booking, loc *time.Location) map[string]string {
	ids := make([]string, 0, len(pending))
	for i, b := range pending {
		if i == maxReminderBookingID {
			ids = append(ids, fmt.Sprintf("and %d more", len(pending)-i))
			break
		}
		ids = append(ids, b.ID)
	}
	return map[string]string{
		"pending_count":     strconv.Itoa(len(pending)),
		"oldest_created_at": pending[0].CreatedAt.In(loc).Format("02 Jan 2006 15:04"),
		"booking_ids":       strings.Join(ids, ", "),
	}
}
