package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/selvamresidency/hotel-backend/api/responses"
	"github.com/selvamresidency/hotel-backend/api/validators"
	"github.com/selvamresidency/hotel-backend/internal/bookings"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
)

type rejectBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func bookingIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "bookingId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	return id, nil
}

func AdminListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("bookings"))
			return
		}
		order, err := enums.ParseBookingSort(r.URL.Query().Get("sort"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").
				WithDetails(map[string]any{"field": "sort"}))
			return
		}
		list, err := svc.List(r.Context(), order)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminBookingStats(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("bookings"))
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func AdminGetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("bookings"))
			return
		}
		id, err := bookingIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// AdminDeleteBooking removes the record only; inventory taken by an approved
// booking is not given back.
func AdminDeleteBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("bookings"))
			return
		}
		id, err := bookingIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "deleted": true})
	}
}

// AdminApproveBooking responds 200 once the stay was decremented or found
// short. Shortfalls and email failures come back as warnings. A store
// failure during the decrement is returned as an error and the next
// approve retries it.
func AdminApproveBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("bookings"))
			return
		}
		id, err := bookingIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		decision, err := svc.Approve(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeDecision(w, decision)
	}
}

func AdminRejectBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("bookings"))
			return
		}
		id, err := bookingIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rejectBookingRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		decision, err := svc.Reject(r.Context(), id, validators.SanitizeString(body.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeDecision(w, decision)
	}
}

func writeDecision(w http.ResponseWriter, decision *bookings.Decision) {
	if decision.Warnings == nil {
		decision.Warnings = []bookings.Warning{}
	}
	responses.WriteSuccess(w, decision)
}
