package domain

import "time"

// User is the authenticated profile held client-side alongside the token.
type User struct {
	ID        int        `json:"id,omitempty"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt *Timestamp `json:"createdAt,omitempty"`
	UpdatedAt *Timestamp `json:"updatedAt,omitempty"`
}

// Session is the credential and profile produced by login, register and
// status checks.
type Session struct {
	Token     string
	User      User
	ExpiresAt time.Time
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // G117: login credential DTO
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // G117: register credential DTO
}

// AuthResponse is the payload returned by the /api/Auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"` //nolint:gosec // G117: auth response DTO
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	ExpiresAt Timestamp `json:"expiresAt"`
}

// Session converts the wire payload into a Session.
func (r *AuthResponse) Session() *Session {
	return &Session{
		Token:     r.Token,
		User:      User{Username: r.Username, Email: r.Email},
		ExpiresAt: r.ExpiresAt.Time,
	}
}
