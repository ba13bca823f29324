package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/selvamresidency/hotel-backend/pkg/enums"
)

// AdminSubject is the subject of every back-office token. There is a
// single shared admin account.
const AdminSubject = "admin"

// AccessTokenClaims represents the typed JWT issued to the back office.
type AccessTokenClaims struct {
	Role enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
