package dto

import "github.com/spec-kit/school-portal/internal/domain"

// LoginRequest payload for sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed-in principal and where to send it.
type LoginResponse struct {
	User     domain.Principal `json:"user"`
	Redirect string           `json:"redirect"`
}

// LogoutResponse tells the client where to go after signing out.
type LogoutResponse struct {
	Redirect string `json:"redirect"`
}

// SessionResponse mirrors the caller's session observer. Redirect is set
// only when the caller is signed in.
type SessionResponse struct {
	User            *domain.Principal `json:"user"`
	IsAuthenticated bool              `json:"isAuthenticated"`
	Loading         bool              `json:"loading"`
	Redirect        string            `json:"redirect,omitempty"`
}

// DemoCredential is one sign-in hint shown on the login page.
type DemoCredential struct {
	Role     domain.Role `json:"role"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
}

// LandingResponse is the sign-in page for a caller with no session.
type LandingResponse struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Login           string `json:"login"`
	DemoCredentials string `json:"demoCredentials,omitempty"`
}
