package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/selvamresidency/hotel-backend/pkg/docstore"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
)

// Repository persists bookings in the document store.
type Repository interface {
	Get(ctx context.Context, id string) (*Booking, error)
	Create(ctx context.Context, booking *Booking) error
	// Update merges the json fields of patch into the stored booking.
	Update(ctx context.Context, id string, patch any) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Booking, error)
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

func (r *repository) Get(ctx context.Context, id string) (*Booking, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found").
				WithDetails(map[string]any{"booking_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return decodeBooking(id, doc)
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	doc, err := docstore.Encode(booking)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode booking")
	}
	if err := r.store.Replace(ctx, Collection, booking.ID, doc); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store booking")
	}
	return nil
}

func (r *repository) Update(ctx context.Context, id string, patch any) error {
	doc, err := docstore.Encode(patch)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode booking update")
	}
	if err := r.store.Set(ctx, Collection, id, doc); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking").
			WithDetails(map[string]any{"booking_id": id})
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, Collection, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete booking")
	}
	return nil
}

func (r *repository) List(ctx context.Context) ([]Booking, error) {
	snaps, err := r.store.List(ctx, Collection)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	out := make([]Booking, 0, len(snaps))
	for _, snap := range snaps {
		b, err := decodeBooking(snap.Key, snap.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

func decodeBooking(id string, doc docstore.Document) (*Booking, error) {
	var b Booking
	if err := docstore.Decode(doc, &b); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode booking").
			WithDetails(map[string]any{"booking_id": id})
	}
	if b.ID == "" {
		b.ID = id
	}
	return &b, nil
}
