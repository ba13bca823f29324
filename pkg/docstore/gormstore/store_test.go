package gormstore

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selvamresidency/hotel-backend/pkg/db"
	"github.com/selvamresidency/hotel-backend/pkg/db/models"
	"github.com/selvamresidency/hotel-backend/pkg/docstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	client, err := db.NewSQLite(context.Background(), "file:"+t.Name()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	require.NoError(t, client.DB().AutoMigrate(&models.Document{}))
	t.Cleanup(func() { _ = client.Close() })

	store, err := New(client)
	require.NoError(t, err)
	return store
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "dailyData", "2024-06-01")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestSetMergesNestedMaps(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "dailyData", "2024-06-01", docstore.Document{
		"rates":    map[string]any{"1": 2000},
		"blocking": map[string]any{"3": true},
	}))
	require.NoError(t, store.Set(ctx, "dailyData", "2024-06-01", docstore.Document{
		"inventory": map[string]any{"1": 4},
		"rates":     map[string]any{"2": 2100},
	}))

	doc, err := store.Get(ctx, "dailyData", "2024-06-01")
	require.NoError(t, err)

	rate, ok := docstore.Int(doc.Map("rates")["1"])
	require.True(t, ok)
	assert.Equal(t, 2000, rate)
	rate, _ = docstore.Int(doc.Map("rates")["2"])
	assert.Equal(t, 2100, rate)
	inv, _ := docstore.Int(doc.Map("inventory")["1"])
	assert.Equal(t, 4, inv)
	assert.Equal(t, true, doc.Map("blocking")["3"])
}

func TestReplaceListDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "bookings", "b2", docstore.Document{"name": "Meena", "status": "pending"}))
	require.NoError(t, store.Replace(ctx, "bookings", "b1", docstore.Document{"name": "Arun"}))
	require.NoError(t, store.Replace(ctx, "bookings", "b2", docstore.Document{"name": "Meena"}))

	snaps, err := store.List(ctx, "bookings")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "b1", snaps[0].Key)
	assert.Nil(t, snaps[1].Data["status"])

	require.NoError(t, store.Delete(ctx, "bookings", "b1"))
	require.NoError(t, store.Delete(ctx, "bookings", "missing"))
	snaps, err = store.List(ctx, "bookings")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestNumbersDecodeAsJSONNumber(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Replace(ctx, "bookings", "b1", docstore.Document{"totalPrice": 5400}))

	doc, err := store.Get(ctx, "bookings", "b1")
	require.NoError(t, err)
	assert.Equal(t, json.Number("5400"), doc["totalPrice"])
}

func TestConcurrentMergesOnDifferentFieldsAllLand(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Replace(ctx, "dailyData", "2024-07-11", docstore.Document{}))

	var wg sync.WaitGroup
	for _, room := range []string{"1", "2", "3", "4"} {
		wg.Add(1)
		go func(room string) {
			defer wg.Done()
			assert.NoError(t, store.Set(ctx, "dailyData", "2024-07-11", docstore.Document{
				"inventory": map[string]any{room: 2},
			}))
		}(room)
	}
	wg.Wait()

	doc, err := store.Get(ctx, "dailyData", "2024-07-11")
	require.NoError(t, err)
	assert.Len(t, doc.Map("inventory"), 4)
}
