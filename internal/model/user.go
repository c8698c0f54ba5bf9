package model

import "time"

// User represents a user in the database.
type User struct {
	ID                       int64
	Username                 string
	Email                    string
	PasswordHash             string
	EmailVerified            bool
	VerificationToken        *string
	VerificationTokenExpires *int64 // epoch milliseconds
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Public returns the projection of the user that is safe to hand out.
func (u *User) Public() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// CreateUserRequest represents a user registration request.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ResendVerificationRequest asks for a fresh verification token.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// AuthResponse represents an authentication response with a JWT token and user info.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// RegisterResponse is returned after registration; no token is issued until
// the email address is verified.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
