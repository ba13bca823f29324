package controllers

import (
	"net/http"

	"github.com/selvamresidency/hotel-backend/api/responses"
	"github.com/selvamresidency/hotel-backend/api/validators"
	"github.com/selvamresidency/hotel-backend/internal/bookings"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
)

// CreateBooking accepts a guest's booking request. It is stored as pending
// until the hotel approves or rejects it.
func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("bookings"))
			return
		}
		var in bookings.CreateInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		in.Name = validators.SanitizeString(in.Name, 120)
		in.Address = validators.SanitizeString(in.Address, 500)
		in.SpecialRequests = validators.SanitizeString(in.SpecialRequests, 1000)

		booking, err := svc.Create(r.Context(), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}
