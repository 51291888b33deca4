package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT payload for access tokens issued by the identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	SchoolID string   `json:"school_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	jwt.RegisteredClaims
}

// Actor identifies the authenticated caller of an engine operation.
type Actor struct {
	UserID   string
	SchoolID string
	Role     UserRole
}

// ActorFromClaims converts token claims into an engine actor.
func ActorFromClaims(claims *JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, SchoolID: claims.SchoolID, Role: claims.Role}
}
