package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/selvamresidency/hotel-backend/internal/inventory"
	"github.com/selvamresidency/hotel-backend/internal/notifications"
	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	"github.com/selvamresidency/hotel-backend/pkg/docstore"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
)

var (
	errMailDown  = errors.New("mail provider down")
	errStoreDown = errors.New("connection reset")
)

type recordingNotifier struct {
	mu       sync.Mutex
	requests []notifications.Request
	failKind map[enums.TemplateKind]bool
}

func (n *recordingNotifier) Notify(_ context.Context, req notifications.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failKind[req.Kind] {
		return errMailDown
	}
	n.requests = append(n.requests, req)
	return nil
}

func (n *recordingNotifier) kinds() []enums.TemplateKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]enums.TemplateKind, 0, len(n.requests))
	for _, r := range n.requests {
		out = append(out, r.Kind)
	}
	return out
}

func (n *recordingNotifier) last() notifications.Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.requests[len(n.requests)-1]
}

type fixture struct {
	store     *docstore.Memory
	records   inventory.Repository
	inventory inventory.Service
	notifier  *recordingNotifier
	svc       Service
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemory()
	records, err := inventory.NewRepository(store)
	require.NoError(t, err)
	inv, err := inventory.NewService(inventory.ServiceParams{Records: records})
	require.NoError(t, err)
	repo, err := NewRepository(store)
	require.NoError(t, err)

	f := &fixture{
		store:     store,
		records:   records,
		inventory: inv,
		notifier:  &recordingNotifier{failKind: map[enums.TemplateKind]bool{}},
		now:       time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC),
	}
	f.svc, err = NewService(ServiceParams{
		Repo:       repo,
		Inventory:  inv,
		Notifier:   f.notifier,
		HotelEmail: "frontdesk@example.com",
		Now:        func() time.Time { return f.now },
	})
	require.NoError(t, err)
	return f
}

// flakyInventory fails the next fail decrements with a store error.
type flakyInventory struct {
	Inventory
	fail  int
	calls int
}

func (i *flakyInventory) DecrementForStay(ctx context.Context, id rooms.ID, checkIn, checkOut dates.Date) (*inventory.StayDecrement, error) {
	i.calls++
	if i.fail > 0 {
		i.fail--
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errStoreDown, "write daily record")
	}
	return i.Inventory.DecrementForStay(ctx, id, checkIn, checkOut)
}

// withInventory swaps the inventory the service decrements through.
func (f *fixture) withInventory(t *testing.T, inv Inventory) {
	t.Helper()
	repo, err := NewRepository(f.store)
	require.NoError(t, err)
	f.svc, err = NewService(ServiceParams{
		Repo:       repo,
		Inventory:  inv,
		Notifier:   f.notifier,
		HotelEmail: "frontdesk@example.com",
		Now:        func() time.Time { return f.now },
	})
	require.NoError(t, err)
}

func (f *fixture) input(room rooms.ID, checkIn, checkOut string) CreateInput {
	return CreateInput{
		RoomID:   room,
		Name:     "Asha Kumar",
		Email:    "asha@example.com",
		Phone:    "+91 98400 00000",
		Address:  "12 Beach Road, Chennai",
		CheckIn:  dates.MustParse(checkIn),
		CheckOut: dates.MustParse(checkOut),
	}
}

func (f *fixture) create(t *testing.T, room rooms.ID, checkIn, checkOut string) *Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), f.input(room, checkIn, checkOut))
	require.NoError(t, err)
	return b
}
