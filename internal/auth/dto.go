// Platewise | 2026
// dto.go

package auth

import (
	"time"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// RegisterRequest is the owner signup: the establishment and its founding
// manager are created together.
type RegisterRequest struct {
	Email             string `json:"email"              validate:"required,email,max=255"`
	Password          string `json:"password"           validate:"required,min=8,max=128"`
	FirstName         string `json:"first_name"         validate:"required,min=1,max=100"`
	LastName          string `json:"last_name"          validate:"required,min=1,max=100"`
	EstablishmentName string `json:"establishment_name" validate:"required,min=1,max=120"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type MemberResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Role            string    `json:"role"`
	EstablishmentID string    `json:"establishment_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type AuthResponse struct {
	Member MemberResponse `json:"member"`
	Tokens TokenResponse  `json:"tokens"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=128"`
}
