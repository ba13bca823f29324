package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selvamresidency/hotel-backend/internal/inventory"
	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
)

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestCreateQuotesAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.records.Merge(ctx, dates.MustParse("2024-06-02"), inventory.Patch{Rates: map[rooms.ID]int{2: 2500}}))

	b := f.create(t, 2, "2024-06-01", "2024-06-04")

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, enums.BookingStatusPending, b.Status)
	assert.Equal(t, 3, b.NumberOfNights)
	assert.Equal(t, 2000, b.RoomPrice)
	assert.Equal(t, 2000+2500+2000, b.TotalPrice)
	assert.Equal(t, "Triple Bed A/C", b.RoomCategory)
	assert.True(t, b.EmailSent)
	assert.Equal(t, []enums.TemplateKind{enums.TemplateKindNewBooking, enums.TemplateKindBookingReceived}, f.notifier.kinds())
	assert.Equal(t, "asha@example.com", f.notifier.last().Recipient)
	assert.Equal(t, "6500", f.notifier.last().Fields["total_price"])

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.TotalPrice, stored.TotalPrice)
	assert.True(t, stored.EmailSent)
	assert.Equal(t, "2024-06-01", stored.CheckIn.String())
}

func TestCreateRecordsNotificationFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.failKind[enums.TemplateKindBookingReceived] = true

	b := f.create(t, 1, "2024-06-01", "2024-06-02")
	assert.False(t, b.EmailSent)
	assert.Contains(t, b.EmailError, "mail provider down")

	stored, err := f.svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusPending, stored.Status)
	assert.False(t, stored.EmailSent)
}

func TestCreateRejectsUnbookableNights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.records.Merge(ctx, dates.MustParse("2024-06-02"), inventory.Patch{Blocking: map[rooms.ID]bool{1: true}}))

	_, err := f.svc.Create(ctx, f.input(1, "2024-06-01", "2024-06-04"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, f.notifier.kinds())

	list, err := f.svc.List(ctx, enums.BookingSortNewest)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]CreateInput{
		"past check-in":  f.input(1, "2024-05-19", "2024-05-21"),
		"inverted range": f.input(1, "2024-06-03", "2024-06-01"),
		"same day":       f.input(1, "2024-06-03", "2024-06-03"),
		"unknown room":   f.input(9, "2024-06-01", "2024-06-02"),
	}
	noEmail := f.input(1, "2024-06-01", "2024-06-02")
	noEmail.Email = "nope"
	cases["bad email"] = noEmail
	noName := f.input(1, "2024-06-01", "2024-06-02")
	noName.Name = "  "
	cases["missing name"] = noName

	for name, in := range cases {
		_, err := f.svc.Create(ctx, in)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}
	assert.Empty(t, f.notifier.kinds())
}

func TestApproveDecrementsStayNights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, 1, "2024-06-01", "2024-06-04")

	decision, err := f.svc.Approve(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, decision.Changed)
	assert.Nil(t, decision.Shortfall)
	assert.Empty(t, decision.Warnings)
	assert.Equal(t, enums.BookingStatusApproved, decision.Booking.Status)
	require.NotNil(t, decision.Inventory)
	assert.Equal(t, []string{"2024-06-01", "2024-06-02", "2024-06-03"}, dates.Strings(decision.Inventory.Decremented))

	for _, d := range []string{"2024-06-01", "2024-06-02", "2024-06-03"} {
		snap, err := f.inventory.RoomSnapshot(ctx, 1, dates.MustParse(d))
		require.NoError(t, err)
		assert.Equal(t, 4, snap.AvailableRooms, d)
	}
	snap, err := f.inventory.RoomSnapshot(ctx, 1, dates.MustParse("2024-06-04"))
	require.NoError(t, err)
	assert.Equal(t, 5, snap.AvailableRooms)

	req := f.notifier.last()
	assert.Equal(t, enums.TemplateKindApproval, req.Kind)
	assert.Equal(t, "APPROVED", req.Fields["booking_status"])
}

func TestApproveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, 1, "2024-06-01", "2024-06-02")

	_, err := f.svc.Approve(ctx, b.ID)
	require.NoError(t, err)
	again, err := f.svc.Approve(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, again.Changed)

	snap, err := f.inventory.RoomSnapshot(ctx, 1, dates.MustParse("2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, 4, snap.AvailableRooms, "second approval must not decrement again")
}

func TestApproveReportsShortfallButKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, 3, "2024-06-01", "2024-06-03")
	// Stock runs out after the booking was requested.
	require.NoError(t, f.records.Merge(ctx, dates.MustParse("2024-06-02"), inventory.Patch{Inventory: map[rooms.ID]int{3: 0}}))

	decision, err := f.svc.Approve(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, decision.Shortfall)
	assert.Equal(t, []string{"2024-06-02"}, dates.Strings(decision.Shortfall.Dates))
	require.Len(t, decision.Warnings, 1)
	assert.Equal(t, string(pkgerrors.CodeInsufficientInventory), decision.Warnings[0].Code)

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusApproved, stored.Status)
	assert.Equal(t, []string{"2024-06-02"}, dates.Strings(stored.InventoryShortfall))
	assert.Equal(t, enums.TemplateKindApproval, f.notifier.last().Kind)
}

func TestApproveSurvivesNotificationFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, 1, "2024-06-01", "2024-06-02")
	f.notifier.failKind[enums.TemplateKindApproval] = true

	decision, err := f.svc.Approve(ctx, b.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, decision.Notify, errMailDown)
	require.Len(t, decision.Warnings, 1)

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusApproved, stored.Status)
	snap, err := f.inventory.RoomSnapshot(ctx, 1, dates.MustParse("2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, 4, snap.AvailableRooms)
}

func TestApproveRetriesDecrementAfterStoreFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, 1, "2024-06-01", "2024-06-03")
	flaky := &flakyInventory{Inventory: f.inventory, fail: 1}
	f.withInventory(t, flaky)

	decision, err := f.svc.Approve(ctx, b.ID)
	require.Error(t, err)
	assert.Nil(t, decision)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusApproved, stored.Status)
	assert.True(t, stored.InventoryPending)
	assert.NotContains(t, f.notifier.kinds(), enums.TemplateKindApproval)
	snap, err := f.inventory.RoomSnapshot(ctx, 1, dates.MustParse("2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, 5, snap.AvailableRooms)

	retried, err := f.svc.Approve(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, retried.Changed)
	require.NotNil(t, retried.Inventory)
	assert.Equal(t, []string{"2024-06-01", "2024-06-02"}, dates.Strings(retried.Inventory.Decremented))
	assert.Equal(t, enums.TemplateKindApproval, f.notifier.last().Kind)

	stored, err = f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, stored.InventoryPending)

	_, err = f.svc.Approve(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, flaky.calls, "settled approval must not decrement again")
	snap, err = f.inventory.RoomSnapshot(ctx, 1, dates.MustParse("2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, 4, snap.AvailableRooms)
}

func TestRejectUsesDefaultReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, 4, "2024-06-01", "2024-06-02")

	decision, err := f.svc.Reject(ctx, b.ID, "  ")
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusRejected, decision.Booking.Status)
	assert.Equal(t, "Not available", decision.Booking.RejectionReason)

	req := f.notifier.last()
	assert.Equal(t, enums.TemplateKindRejection, req.Kind)
	assert.Equal(t, "REJECTED", req.Fields["booking_status"])
	assert.Equal(t, "Not available", req.Fields["rejection_reason"])

	snap, err := f.inventory.RoomSnapshot(ctx, 4, dates.MustParse("2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, 5, snap.AvailableRooms, "rejection has no inventory effect")
}

func TestDecisionsAreTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	approved := f.create(t, 1, "2024-06-01", "2024-06-02")
	rejected := f.create(t, 2, "2024-06-01", "2024-06-02")
	_, err := f.svc.Approve(ctx, approved.ID)
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, rejected.ID, "full")
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, approved.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = f.svc.Approve(ctx, rejected.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	again, err := f.svc.Reject(ctx, rejected.ID, "other")
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, "full", again.Booking.RejectionReason)
}

func TestDeleteIsUnconditional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t, 1, "2024-06-01", "2024-06-02")
	_, err := f.svc.Approve(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, b.ID))
	_, err = f.svc.Get(ctx, b.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.NoError(t, f.svc.Delete(ctx, b.ID))

	snap, err := f.inventory.RoomSnapshot(ctx, 1, dates.MustParse("2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, 4, snap.AvailableRooms, "delete does not restore inventory")
}

func TestListSortOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, 1, "2024-06-10", "2024-06-11")
	f.now = f.now.Add(time.Hour)
	second := f.create(t, 4, "2024-06-01", "2024-06-03")
	f.now = f.now.Add(time.Hour)
	third := f.create(t, 2, "2024-06-05", "2024-06-06")

	ids := func(list []Booking) []string {
		out := make([]string, 0, len(list))
		for _, b := range list {
			out = append(out, b.ID)
		}
		return out
	}

	list, err := f.svc.List(ctx, enums.BookingSortNewest)
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(list))

	list, err = f.svc.List(ctx, enums.BookingSortOldest)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, ids(list))

	list, err = f.svc.List(ctx, enums.BookingSortCheckIn)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, third.ID, first.ID}, ids(list))

	list, err = f.svc.List(ctx, enums.BookingSortRevenue)
	require.NoError(t, err)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := f.create(t, 1, "2024-05-20", "2024-05-21")
	upcoming := f.create(t, 2, "2024-06-01", "2024-06-03")
	f.create(t, 3, "2024-06-05", "2024-06-06")
	_, err := f.svc.Approve(ctx, upcoming.ID)
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, today.ID, "")
	require.NoError(t, err)

	f.now = time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 2, stats.Past)
	assert.Equal(t, 1, stats.Upcoming)
	assert.Equal(t, 4000, stats.ApprovedRevenue)
	assert.Equal(t, 1800+4000+2200, stats.TotalRevenue)
}

func TestPendingOlderThan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.create(t, 1, "2024-06-01", "2024-06-02")
	f.now = f.now.Add(48 * time.Hour)
	f.create(t, 2, "2024-06-01", "2024-06-02")

	pending, err := f.svc.PendingOlderThan(ctx, f.now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, old.ID, pending[0].ID)
}
