package controllers

import (
	"net/http"

	"github.com/selvamresidency/hotel-backend/api/middleware"
	"github.com/selvamresidency/hotel-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "admin", "status": "ok"}
		if subject := middleware.SubjectFromContext(r.Context()); subject != "" {
			payload["subject"] = subject
		}
		responses.WriteSuccess(w, payload)
	}
}
