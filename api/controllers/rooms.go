package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/selvamresidency/hotel-backend/api/responses"
	"github.com/selvamresidency/hotel-backend/api/validators"
	"github.com/selvamresidency/hotel-backend/internal/inventory"
	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
)

// clock is swapped in tests.
var clock = time.Now

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

func roomIDParam(r *http.Request) (rooms.ID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "roomId"))
	id, err := rooms.ParseID(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid room id").WithDetails(map[string]any{"room_id": raw})
	}
	return id, nil
}

// ListRooms returns the room catalog with default rates and unit counts.
func ListRooms(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		responses.WriteSuccess(w, svc.Rooms())
	}
}

// DayAvailability resolves every room for ?date=, defaulting to today at the
// hotel.
func DayAvailability(svc inventory.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		date, err := validators.ParseQueryDate(r, "date", dates.Today(clock(), loc))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		day, err := svc.DayAvailability(r.Context(), date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, day)
	}
}

func RoomAvailability(svc inventory.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		id, err := roomIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.ParseQueryDate(r, "date", dates.Today(clock(), loc))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := svc.RoomSnapshot(r.Context(), id, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// RoomQuote prices a stay night by night. Both dates are required.
func RoomQuote(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		id, err := roomIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkIn, err := validators.ParseQueryDate(r, "check_in", dates.Date{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkOut, err := validators.ParseQueryDate(r, "check_out", dates.Date{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.QuoteStay(r.Context(), id, checkIn, checkOut)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
