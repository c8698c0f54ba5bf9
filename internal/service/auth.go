package service

import (
	"context"
	"errors"
	"time"

	"github.com/taskpad/taskpad-go/internal/crypto"
	"github.com/taskpad/taskpad-go/internal/model"
)

// AuthService issues bearer tokens on top of the user store.
type AuthService struct {
	users     *UserService
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *UserService, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

// Register creates an unverified account. No token is issued until the
// email address has been verified.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.RegisterResponse, error) {
	user, err := s.users.CreateUser(ctx, req.Username, req.Email, req.Password, false)
	if err != nil {
		return model.RegisterResponse{}, err
	}

	return model.RegisterResponse{
		Message: "registration successful, check your email to verify your account",
		User:    user,
	}, nil
}

// Login authenticates a user and returns an auth token. Unknown usernames
// and wrong passwords are reported identically.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.users.AuthenticateUser(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	token, err := crypto.GenerateToken(user.ID, user.Username, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token: token,
		User:  user,
	}, nil
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (model.UserResponse, error) {
	return s.users.VerifyEmail(ctx, token)
}

// ResendVerification issues and sends a fresh verification token.
func (s *AuthService) ResendVerification(ctx context.Context, req model.ResendVerificationRequest) error {
	return s.users.ResendVerification(ctx, req.Email)
}

// GetUser retrieves a user by ID and returns safe user data.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, found, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	if !found {
		return model.UserResponse{}, ErrNotFound
	}
	return user, nil
}
