package inventory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/metrics"
)

const (
	defaultBulkConcurrency = 8
	defaultMaxRangeDays    = 366
)

var (
	hundred = decimal.NewFromInt(100)
	// maxAmount caps FIXED and ADD values and every computed result.
	maxAmount = decimal.NewFromInt(math.MaxInt32)
	// maxPercent caps PERCENT in either direction.
	maxPercent = decimal.NewFromInt(10000)
)

// Change is one rate or inventory adjustment.
type Change struct {
	Mode  enums.ChangeMode `json:"mode"`
	Value decimal.Decimal  `json:"value"`
}

// Apply computes the new value from the current effective value. Results
// stay within 0 and math.MaxInt32.
func (c Change) Apply(current int) int {
	var next int64
	switch c.Mode {
	case enums.ChangeModeFixed:
		next = c.Value.IntPart()
	case enums.ChangeModeAdd:
		next = int64(current) + c.Value.IntPart()
	case enums.ChangeModePercent:
		factor := decimal.NewFromInt(1).Add(c.Value.Div(hundred))
		next = decimal.NewFromInt(int64(current)).Mul(factor).Round(0).IntPart()
	default:
		return current
	}
	return int(min(max(next, 0), math.MaxInt32))
}

func (c Change) validate(field string, allowNegativeFixed bool) error {
	if !c.Mode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s change mode %q is not supported", field, c.Mode))
	}
	if c.Mode != enums.ChangeModePercent && !c.Value.IsInteger() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s value must be a whole number", field))
	}
	if c.Mode == enums.ChangeModeFixed && !allowNegativeFixed && c.Value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s value must not be negative", field))
	}
	limit := maxAmount
	if c.Mode == enums.ChangeModePercent {
		limit = maxPercent
	}
	if c.Value.Abs().GreaterThan(limit) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s value is out of range", field)).
			WithDetails(map[string]any{"field": field, "max": limit.String()})
	}
	return nil
}

// BulkUpdate applies Rate and/or Inventory to every selected room on every
// date from Start to End inclusive.
type BulkUpdate struct {
	RoomIDs   []rooms.ID
	Start     dates.Date
	End       dates.Date
	Rate      *Change
	Inventory *Change
}

type BulkResult struct {
	UpdatedDates int `json:"updated_dates"`
	UpdatedRooms int `json:"updated_rooms"`
	Entries      int `json:"entries"`
}

type BulkOptions struct {
	Concurrency  int
	MaxRangeDays int
}

// BulkMutator writes one read-modify-write merge per date. Percent changes
// are computed from the value stored for that date before this update, so
// a +10% over several days never compounds.
type BulkMutator struct {
	records     Repository
	catalog     *rooms.Catalog
	concurrency int
	maxDays     int
	logg        *logger.Logger
	metrics     *metrics.HotelMetrics
}

func NewBulkMutator(records Repository, catalog *rooms.Catalog, opts BulkOptions, logg *logger.Logger, m *metrics.HotelMetrics) (*BulkMutator, error) {
	if records == nil {
		return nil, fmt.Errorf("daily record repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("room catalog required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultBulkConcurrency
	}
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = defaultMaxRangeDays
	}
	return &BulkMutator{
		records:     records,
		catalog:     catalog,
		concurrency: opts.Concurrency,
		maxDays:     opts.MaxRangeDays,
		logg:        logg,
		metrics:     m,
	}, nil
}

func (m *BulkMutator) Apply(ctx context.Context, in BulkUpdate) (*BulkResult, error) {
	roomIDs, days, err := m.validate(in)
	if err != nil {
		m.metrics.ObserveBulkUpdate("rejected", 0)
		return nil, err
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		errs    error
		failed  []string
		written int
	)
	g.SetLimit(m.concurrency)
	for _, day := range days {
		g.Go(func() error {
			err := m.applyDate(ctx, day, roomIDs, in)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", day, err))
				failed = append(failed, day.String())
				return nil
			}
			written++
			return nil
		})
	}
	_ = g.Wait()

	result := &BulkResult{
		UpdatedDates: written,
		UpdatedRooms: len(roomIDs),
		Entries:      written * len(roomIDs),
	}

	fields := map[string]any{
		"start":         in.Start.String(),
		"end":           in.End.String(),
		"room_ids":      roomIDs,
		"updated_dates": written,
	}
	if errs != nil {
		sort.Strings(failed)
		fields["failed_dates"] = failed
		if m.logg != nil {
			m.logg.Error(m.logg.WithFields(ctx, fields), "inventory.bulk_update.partial", errs)
		}
		m.metrics.ObserveBulkUpdate("partial", result.Entries)
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "bulk update partially applied").
			WithDetails(map[string]any{"failed_dates": failed, "updated_dates": written})
	}

	if m.logg != nil {
		m.logg.Info(m.logg.WithFields(ctx, fields), "inventory.bulk_update.applied")
	}
	m.metrics.ObserveBulkUpdate("ok", result.Entries)
	return result, nil
}

func (m *BulkMutator) validate(in BulkUpdate) ([]rooms.ID, []dates.Date, error) {
	if len(in.RoomIDs) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "select at least one room")
	}
	if in.Rate == nil && in.Inventory == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "provide a rate or inventory change")
	}
	if in.Rate != nil {
		if err := in.Rate.validate("rate", false); err != nil {
			return nil, nil, err
		}
	}
	if in.Inventory != nil {
		if err := in.Inventory.validate("inventory", true); err != nil {
			return nil, nil, err
		}
	}

	seen := make(map[rooms.ID]struct{}, len(in.RoomIDs))
	roomIDs := make([]rooms.ID, 0, len(in.RoomIDs))
	for _, id := range in.RoomIDs {
		if !m.catalog.Contains(id) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown room type").
				WithDetails(map[string]any{"room_id": int(id)})
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		roomIDs = append(roomIDs, id)
	}
	sort.Slice(roomIDs, func(i, j int) bool { return roomIDs[i] < roomIDs[j] })

	days, err := dates.Range(in.Start, in.End)
	if err != nil {
		return nil, nil, err
	}
	if len(days) > m.maxDays {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("date range exceeds %d days", m.maxDays))
	}
	return roomIDs, days, nil
}

func (m *BulkMutator) applyDate(ctx context.Context, date dates.Date, roomIDs []rooms.ID, in BulkUpdate) error {
	rec, err := m.records.Get(ctx, date)
	if err != nil {
		return err
	}
	day := NewDay(m.catalog, rec)

	var patch Patch
	if in.Rate != nil {
		patch.Rates = make(map[rooms.ID]int, len(roomIDs))
		for _, id := range roomIDs {
			patch.Rates[id] = in.Rate.Apply(day.Rate(id))
		}
	}
	if in.Inventory != nil {
		patch.Inventory = make(map[rooms.ID]int, len(roomIDs))
		for _, id := range roomIDs {
			patch.Inventory[id] = in.Inventory.Apply(day.Inventory(id))
		}
	}
	return m.records.Merge(ctx, date, patch)
}
