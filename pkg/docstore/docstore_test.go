package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeKeepsSiblingMaps(t *testing.T) {
	dst := Document{
		"rates":    map[string]any{"1": 2000},
		"blocking": map[string]any{"2": true},
	}
	src := Document{"inventory": map[string]any{"1": 4}, "rates": map[string]any{"3": 2500}}

	got := Merge(dst, src)

	assert.Equal(t, map[string]any{"1": 2000, "3": 2500}, got["rates"])
	assert.Equal(t, map[string]any{"2": true}, got["blocking"])
	assert.Equal(t, map[string]any{"1": 4}, got["inventory"])
}

func TestMergeScalarReplacesMap(t *testing.T) {
	got := Merge(Document{"status": map[string]any{"a": 1}}, Document{"status": "approved"})
	assert.Equal(t, "approved", got["status"])
}

func TestCloneIsDeep(t *testing.T) {
	orig := Document{"rates": map[string]any{"1": 1800}}
	cp := Clone(orig)
	cp.Map("rates")["1"] = 9999
	assert.Equal(t, 1800, orig.Map("rates")["1"])
}

func TestIntNormalization(t *testing.T) {
	cases := []struct {
		in   any
		want int
		ok   bool
	}{
		{in: 5, want: 5, ok: true},
		{in: int32(7), want: 7, ok: true},
		{in: int64(9), want: 9, ok: true},
		{in: float64(4), want: 4, ok: true},
		{in: 4.5, ok: false},
		{in: json.Number("12"), want: 12, ok: true},
		{in: "3", want: 3, ok: true},
		{in: "x", ok: false},
		{in: nil, ok: false},
	}
	for _, tc := range cases {
		got, ok := Int(tc.in)
		assert.Equal(t, tc.ok, ok, "input %#v", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %#v", tc.in)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	type booking struct {
		Name  string `json:"name"`
		Price int    `json:"price"`
	}
	doc, err := Encode(booking{Name: "Ravi", Price: 3600})
	require.NoError(t, err)
	assert.Equal(t, "Ravi", doc["name"])

	var out booking
	require.NoError(t, Decode(doc, &out))
	assert.Equal(t, 3600, out.Price)
}

func TestMemoryStoreMergeReplaceDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Get(ctx, "dailyData", "2024-06-01")
	require.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, store.Set(ctx, "dailyData", "2024-06-01", Document{"rates": map[string]any{"1": 2000}}))
	require.NoError(t, store.Set(ctx, "dailyData", "2024-06-01", Document{"inventory": map[string]any{"1": 3}}))

	doc, err := store.Get(ctx, "dailyData", "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 2000, doc.Map("rates")["1"])
	assert.Equal(t, 3, doc.Map("inventory")["1"])

	require.NoError(t, store.Replace(ctx, "dailyData", "2024-06-01", Document{"blocking": map[string]any{"1": true}}))
	doc, err = store.Get(ctx, "dailyData", "2024-06-01")
	require.NoError(t, err)
	assert.Nil(t, doc["rates"])

	snaps, err := store.List(ctx, "dailyData")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "2024-06-01", snaps[0].Key)

	require.NoError(t, store.Delete(ctx, "dailyData", "2024-06-01"))
	require.NoError(t, store.Delete(ctx, "dailyData", "2024-06-01"))
	_, err = store.Get(ctx, "dailyData", "2024-06-01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemory().Set(ctx, "bookings", "b1", Document{"name": "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
