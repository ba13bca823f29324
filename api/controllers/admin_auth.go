package controllers

import (
	"net/http"
	"time"

	"github.com/selvamresidency/hotel-backend/api/responses"
	"github.com/selvamresidency/hotel-backend/api/validators"
	pkgAuth "github.com/selvamresidency/hotel-backend/pkg/auth"
	"github.com/selvamresidency/hotel-backend/pkg/config"
	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/security"
)

type adminLoginRequest struct {
	Password string `json:"password" validate:"required,max=256"`
}

type adminLoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AdminLogin exchanges the shared back-office password for a bearer token.
func AdminLogin(cfg config.AdminConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body adminLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ok, err := security.VerifyPassword(body.Password, cfg.PasswordHash)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify admin password"))
			return
		}
		if !ok {
			if logg != nil {
				logg.Warn(r.Context(), "admin.login_failed")
			}
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
			return
		}

		token, expiresAt, err := pkgAuth.MintAccessToken(cfg, clock(), enums.ActorRoleAdmin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token"))
			return
		}
		responses.WriteSuccess(w, adminLoginResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   expiresAt,
		})
	}
}
