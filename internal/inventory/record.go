package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	"github.com/selvamresidency/hotel-backend/pkg/docstore"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
)

// Collection holds one document per calendar date, keyed YYYY-MM-DD.
const Collection = "dailyData"

const (
	fieldRates     = "rates"
	fieldInventory = "inventory"
	fieldBlocking  = "blocking"
)

// DailyRecord is the sparse per-date overlay of rate, unit count and
// blocking exceptions. A missing key means the catalog default applies.
type DailyRecord struct {
	Date      dates.Date        `json:"date"`
	Rates     map[rooms.ID]int  `json:"rates"`
	Inventory map[rooms.ID]int  `json:"inventory"`
	Blocking  map[rooms.ID]bool `json:"blocking"`
}

func NewDailyRecord(date dates.Date) *DailyRecord {
	return &DailyRecord{
		Date:      date,
		Rates:     map[rooms.ID]int{},
		Inventory: map[rooms.ID]int{},
		Blocking:  map[rooms.ID]bool{},
	}
}

func (r *DailyRecord) IsEmpty() bool {
	return r == nil || len(r.Rates)+len(r.Inventory)+len(r.Blocking) == 0
}

// Patch lists the entries a single write sets. Entries not named are
// left as stored.
type Patch struct {
	Rates     map[rooms.ID]int  `json:"rates,omitempty"`
	Inventory map[rooms.ID]int  `json:"inventory,omitempty"`
	Blocking  map[rooms.ID]bool `json:"blocking,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return len(p.Rates)+len(p.Inventory)+len(p.Blocking) == 0
}

func (p Patch) document() docstore.Document {
	doc := docstore.Document{}
	if len(p.Rates) > 0 {
		doc[fieldRates] = intEntries(p.Rates)
	}
	if len(p.Inventory) > 0 {
		doc[fieldInventory] = intEntries(p.Inventory)
	}
	if len(p.Blocking) > 0 {
		m := make(map[string]any, len(p.Blocking))
		for id, v := range p.Blocking {
			m[id.String()] = v
		}
		doc[fieldBlocking] = m
	}
	return doc
}

func intEntries(in map[rooms.ID]int) map[string]any {
	m := make(map[string]any, len(in))
	for id, v := range in {
		m[id.String()] = v
	}
	return m
}

// Repository is the Daily Record Store.
type Repository interface {
	// Get returns an empty record when nothing is stored for date.
	Get(ctx context.Context, date dates.Date) (*DailyRecord, error)
	Merge(ctx context.Context, date dates.Date, patch Patch) error
	Reset(ctx context.Context, date dates.Date) error
}

type repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) (Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	return &repository{store: store}, nil
}

func (r *repository) Get(ctx context.Context, date dates.Date) (*DailyRecord, error) {
	doc, err := r.store.Get(ctx, Collection, date.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return NewDailyRecord(date), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load daily record").
			WithDetails(map[string]any{"date": date.String()})
	}
	return recordFromDocument(date, doc), nil
}

func (r *repository) Merge(ctx context.Context, date dates.Date, patch Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	if err := r.store.Set(ctx, Collection, date.String(), patch.document()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write daily record").
			WithDetails(map[string]any{"date": date.String()})
	}
	return nil
}

func (r *repository) Reset(ctx context.Context, date dates.Date) error {
	if err := r.store.Delete(ctx, Collection, date.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset daily record").
			WithDetails(map[string]any{"date": date.String()})
	}
	return nil
}

// recordFromDocument converts string room keys to rooms.ID. Keys that do
// not parse and values of the wrong type are dropped.
func recordFromDocument(date dates.Date, doc docstore.Document) *DailyRecord {
	rec := NewDailyRecord(date)
	for raw, v := range doc.Map(fieldRates) {
		id, err := rooms.ParseID(raw)
		if err != nil {
			continue
		}
		if n, ok := docstore.Int(v); ok {
			rec.Rates[id] = n
		}
	}
	for raw, v := range doc.Map(fieldInventory) {
		id, err := rooms.ParseID(raw)
		if err != nil {
			continue
		}
		if n, ok := docstore.Int(v); ok {
			rec.Inventory[id] = n
		}
	}
	for raw, v := range doc.Map(fieldBlocking) {
		id, err := rooms.ParseID(raw)
		if err != nil {
			continue
		}
		if b, ok := docstore.Bool(v); ok {
			rec.Blocking[id] = b
		}
	}
	return rec
}
