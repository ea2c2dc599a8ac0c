package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims carries the caller identity resolved from an access token.
type JWTClaims struct {
	UserID     string      `json:"user_id"`
	Email      string      `json:"email"`
	Role       Role        `json:"role"`
	Department *Department `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest is the credential payload for staff login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PINLoginRequest is the shared-PIN payload used by security terminals.
type PINLoginRequest struct {
	PIN string `json:"pin" validate:"required"`
}

// LoginResponse returns the issued token and caller profile.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo is the public projection of a profile.
type UserInfo struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Role       Role        `json:"role"`
	Department *Department `json:"department,omitempty"`
}
