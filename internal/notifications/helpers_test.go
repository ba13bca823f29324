package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/selvamresidency/hotel-backend/pkg/db"
	"github.com/selvamresidency/hotel-backend/pkg/db/models"
	"github.com/selvamresidency/hotel-backend/pkg/sendgrid"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sendgrid.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg sendgrid.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

var (
	errSMTPDown = errors.New("connection reset")
	errDBDown   = errors.New("database is locked")
)

// markFailingRepo fails MarkSent for one row.
type markFailingRepo struct {
	Repository
	mu     sync.Mutex
	failID uuid.UUID
}

func (r *markFailingRepo) MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error {
	r.mu.Lock()
	fail := id == r.failID
	r.mu.Unlock()
	if fail {
		return errDBDown
	}
	return r.Repository.MarkSent(ctx, id, now)
}

func (r *markFailingRepo) heal() {
	r.mu.Lock()
	r.failID = uuid.Nil
	r.mu.Unlock()
}

type testEnv struct {
	client     *db.Client
	repo       Repository
	clock      *fakeClock
	sender     *fakeSender
	outbox     *Outbox
	dispatcher *Dispatcher
}

func newTestEnv(t *testing.T, maxAttempts int) *testEnv {
	t.Helper()
	client, err := db.NewSQLite(context.Background(), "file:"+t.Name()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	require.NoError(t, client.DB().AutoMigrate(&models.NotificationOutbox{}))
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRepository(client.DB())
	clock := newFakeClock()
	sender := &fakeSender{}
	renderer, err := NewRenderer("Selvam Residency")
	require.NoError(t, err)

	outbox, err := NewOutbox(OutboxParams{Repo: repo, Now: clock.Now})
	require.NoError(t, err)
	dispatcher, err := NewDispatcher(DispatcherParams{
		DB:          client,
		Repo:        repo,
		Renderer:    renderer,
		Sender:      sender,
		MaxAttempts: maxAttempts,
		Now:         clock.Now,
	})
	require.NoError(t, err)

	return &testEnv{client: client, repo: repo, clock: clock, sender: sender, outbox: outbox, dispatcher: dispatcher}
}

// dispatcherWith builds a dispatcher over the same database with repo.
func (e *testEnv) dispatcherWith(t *testing.T, repo Repository) *Dispatcher {
	t.Helper()
	renderer, err := NewRenderer("Selvam Residency")
	require.NoError(t, err)
	d, err := NewDispatcher(DispatcherParams{
		DB:       e.client,
		Repo:     repo,
		Renderer: renderer,
		Sender:   e.sender,
		Now:      e.clock.Now,
	})
	require.NoError(t, err)
	return d
}

func (e *testEnv) rows(t *testing.T) []models.NotificationOutbox {
	t.Helper()
	var rows []models.NotificationOutbox
	require.NoError(t, e.client.DB().Order("created_at ASC").Find(&rows).Error)
	return rows
}

func approvalFields() map[string]string {
	return map[string]string{
		"from_name":        "Asha",
		"to_name":          "Asha",
		"email":            "asha@example.com",
		"check_in":         "2024-06-01",
		"check_out":        "2024-06-03",
		"number_of_nights": "2",
		"price_per_night":  "2000",
		"total_price":      "4000",
		"room_category":    "Deluxe Room",
		"booking_status":   "APPROVED",
	}
}
