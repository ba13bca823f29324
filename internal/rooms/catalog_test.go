package rooms

import "testing"

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	want := map[ID]struct {
		rate  int
		units int
		name  string
	}{
		1: {1800, 5, "Double bed A/C"},
		2: {2000, 5, "Triple Bed A/C"},
		3: {2200, 5, "Four Bed A/C"},
		4: {2400, 5, "Five Bed A/C"},
	}
	if got := c.IDs(); len(got) != 4 || got[0] != 1 || got[3] != 4 {
		t.Fatalf("expected ids 1..4 ascending, got %v", got)
	}
	for id, w := range want {
		rt, ok := c.Lookup(id)
		if !ok {
			t.Fatalf("room %d missing", id)
		}
		if rt.DefaultRate != w.rate || rt.TotalUnits != w.units || rt.Name != w.name {
			t.Fatalf("room %d unexpected %+v", id, rt)
		}
	}
}

func TestUnknownRoomDefaultsToZero(t *testing.T) {
	c := DefaultCatalog()
	if c.DefaultRate(99) != 0 || c.TotalUnits(99) != 0 {
		t.Fatalf("unknown room should resolve to zero defaults")
	}
	if c.Contains(99) {
		t.Fatalf("unknown room should not be contained")
	}
}

func TestNewCatalogValidation(t *testing.T) {
	if _, err := NewCatalog(); err == nil {
		t.Fatalf("expected empty catalog to fail")
	}
	if _, err := NewCatalog(RoomType{ID: 0, Name: "zero"}); err == nil {
		t.Fatalf("expected zero id to fail")
	}
	if _, err := NewCatalog(RoomType{ID: 1}, RoomType{ID: 1}); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}
	if _, err := NewCatalog(RoomType{ID: 1, DefaultRate: -1}); err == nil {
		t.Fatalf("expected negative rate to fail")
	}
}

func TestNewCatalogSortsAndFillsFallbacks(t *testing.T) {
	c, err := NewCatalog(RoomType{ID: 7, Name: "Suite"}, RoomType{ID: 2, Name: "Twin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := c.All()
	if all[0].ID != 2 || all[1].ID != 7 {
		t.Fatalf("expected ascending order, got %+v", all)
	}
	if all[0].Description != DefaultDescription || all[0].Image != DefaultImage {
		t.Fatalf("expected fallbacks, got %+v", all[0])
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 3 ")
	if err != nil || id != 3 {
		t.Fatalf("expected 3, got %d err=%v", id, err)
	}
	for _, raw := range []string{"", "abc", "0", "-2"} {
		if _, err := ParseID(raw); err == nil {
			t.Fatalf("expected %q to fail", raw)
		}
	}
}
