package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/selvamresidency/hotel-backend/api/responses"
	"github.com/selvamresidency/hotel-backend/api/validators"
	"github.com/selvamresidency/hotel-backend/internal/inventory"
	"github.com/selvamresidency/hotel-backend/internal/rooms"
	"github.com/selvamresidency/hotel-backend/pkg/dates"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
)

type bulkUpdateRequest struct {
	RoomIDs   []rooms.ID        `json:"room_ids" validate:"required,min=1"`
	StartDate dates.Date        `json:"start_date" validate:"required"`
	EndDate   dates.Date        `json:"end_date" validate:"required"`
	Rate      *inventory.Change `json:"rate"`
	Inventory *inventory.Change `json:"inventory"`
}

func (b bulkUpdateRequest) toInput() inventory.BulkUpdate {
	return inventory.BulkUpdate{
		RoomIDs:   b.RoomIDs,
		Start:     b.StartDate,
		End:       b.EndDate,
		Rate:      b.Rate,
		Inventory: b.Inventory,
	}
}

func dateParam(r *http.Request) (dates.Date, error) {
	return validators.ParseDate("date", chi.URLParam(r, "date"))
}

// AdminGetDay returns the stored overrides for one date next to what guests
// currently see.
func AdminGetDay(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		date, err := dateParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		day, err := svc.GetDay(r.Context(), date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, day)
	}
}

func AdminSaveDay(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		date, err := dateParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var patch inventory.Patch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		day, err := svc.SaveDay(r.Context(), date, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, day)
	}
}

// AdminResetDay drops every override for the date so catalog defaults apply.
func AdminResetDay(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		date, err := dateParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ResetDay(r.Context(), date); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"date": date, "reset": true})
	}
}

func AdminBulkUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		var body bulkUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.BulkUpdate(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
