package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/docstore"
)

var errUnavailable = errors.New("store unavailable")

// recordingStore wraps Memory to count writes and inject failures per key.
type recordingStore struct {
	*docstore.Memory
	mu       sync.Mutex
	sets     int
	failSet  map[string]bool
	failGets map[string]bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		Memory:   docstore.NewMemory(),
		failSet:  map[string]bool{},
		failGets: map[string]bool{},
	}
}

func (s *recordingStore) Get(ctx context.Context, collection, key string) (docstore.Document, error) {
	s.mu.Lock()
	fail := s.failGets[key]
	s.mu.Unlock()
	if fail {
		return nil, errUnavailable
	}
	return s.Memory.Get(ctx, collection, key)
}

func (s *recordingStore) Set(ctx context.Context, collection, key string, fields docstore.Document) error {
	s.mu.Lock()
	s.sets++
	fail := s.failSet[key]
	s.mu.Unlock()
	if fail {
		return errUnavailable
	}
	return s.Memory.Set(ctx, collection, key, fields)
}

func (s *recordingStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

type fixture struct {
	store   *recordingStore
	records Repository
	catalog *rooms.Catalog
	svc     Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newRecordingStore()
	records, err := NewRepository(store)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	catalog := rooms.DefaultCatalog()
	svc, err := NewService(ServiceParams{Records: records, Catalog: catalog, Bulk: BulkOptions{Concurrency: 4}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{store: store, records: records, catalog: catalog, svc: svc}
}
