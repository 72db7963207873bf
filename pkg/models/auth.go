package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims identify an API client, not a learner; learners are addressed by
// the user id in the request path.
type JWTClaims struct {
	ClientID string `json:"client_id"`
	APIKey   string `json:"api_key,omitempty"`
	UserTier string `json:"user_tier"` // free, premium, enterprise
	jwt.RegisteredClaims
}

type AuthRequest struct {
	APIKey   string `json:"api_key" validate:"required"`
	ClientID string `json:"client_id,omitempty" validate:"omitempty,max=64"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"client_id"`
	ExpiresAt time.Time `json:"expires_at"`
	UserTier  string    `json:"user_tier"`
}

type RateLimitInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}
