package model

import "time"

// UserStatus is the administrative state of an account. Only Active accounts may log in.
type UserStatus string

const (
	StatusActive    UserStatus = "Active"
	StatusInactive  UserStatus = "Inactive"
	StatusSuspended UserStatus = "Suspended"
)

// User represents a user in the database.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsVerified   bool
	Status       UserStatus
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Response strips the credential fields for API output.
func (u *User) Response() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		Status:     u.Status,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailRequest carries the token from the verification link.
type VerifyEmailRequest struct {
	Code string `json:"code"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is returned on login and mirrored into cookies.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	IsVerified bool       `json:"isVerified"`
	Status     UserStatus `json:"status"`
	LastLogin  *time.Time `json:"lastLogin"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
