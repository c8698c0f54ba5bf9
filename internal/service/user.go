package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/taskpad/taskpad-go/internal/crypto"
	"github.com/taskpad/taskpad-go/internal/model"
	"github.com/taskpad/taskpad-go/internal/repository"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores anything longer

	// VerificationTTL is how long a verification token stays valid.
	VerificationTTL = 24 * time.Hour
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// VerificationSender delivers a verification token to a user's address.
type VerificationSender interface {
	SendVerification(ctx context.Context, to, username, token string) error
}

// UserService owns user accounts: registration, credential checks and the
// email verification token lifecycle.
type UserService struct {
	repo   *repository.UserRepository
	hasher *crypto.Hasher
	sender VerificationSender
	now    func() time.Time
}

// NewUserService creates a new UserService. sender may be nil, in which case
// tokens are issued but not delivered.
func NewUserService(repo *repository.UserRepository, hasher *crypto.Hasher, sender VerificationSender) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		sender: sender,
		now:    time.Now,
	}
}

// CreateUser registers a new account. Unless autoVerify is set, the account
// starts unverified with a fresh token that is handed to the sender.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string, autoVerify bool) (model.UserResponse, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if !usernamePattern.MatchString(username) {
		return model.UserResponse{}, ErrUsernameInvalid
	}
	if !validEmail(email) {
		return model.UserResponse{}, ErrEmailInvalid
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return model.UserResponse{}, ErrPasswordInvalid
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return model.UserResponse{}, err
	}

	now := s.now()
	user := &model.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: autoVerify,
	}

	var token string
	if !autoVerify {
		if token, err = crypto.NewVerificationToken(); err != nil {
			return model.UserResponse{}, err
		}
		expires := now.Add(VerificationTTL).UnixMilli()
		user.VerificationToken = &token
		user.VerificationTokenExpires = &expires
	}

	if err := s.repo.Create(ctx, user, now); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return model.UserResponse{}, ErrDuplicateIdentity
		}
		return model.UserResponse{}, storageErr("create user", err)
	}

	if token != "" {
		s.deliver(ctx, user, token)
	}

	slog.Info("user created", "user_id", user.ID, "username", user.Username, "verified", autoVerify)
	return user.Public(), nil
}

// AuthenticateUser checks a username/password pair. Unverified accounts are
// rejected even when the password matches.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (model.UserResponse, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrNotFound
		}
		return model.UserResponse{}, storageErr("get user", err)
	}

	match, err := s.hasher.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return model.UserResponse{}, err
	}
	if !match {
		return model.UserResponse{}, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return model.UserResponse{}, ErrEmailNotVerified
	}

	return user.Public(), nil
}

// VerifyEmail consumes a verification token.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (model.UserResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.UserResponse{}, ErrTokenRequired
	}

	now := s.now()
	user, err := s.repo.GetByVerificationToken(ctx, token, now.UnixMilli())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrInvalidOrExpiredToken
		}
		return model.UserResponse{}, storageErr("get user by token", err)
	}

	if err := s.repo.MarkVerified(ctx, user.ID, token, now); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrInvalidOrExpiredToken
		}
		return model.UserResponse{}, storageErr("mark verified", err)
	}

	user.EmailVerified = true
	user.VerificationToken = nil
	user.VerificationTokenExpires = nil
	user.UpdatedAt = stamp(now)

	slog.Info("email verified", "user_id", user.ID)
	return user.Public(), nil
}

// ResendVerification rotates the token of an unverified account and sends it
// again.
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return ErrEmailInvalid
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return storageErr("get user", err)
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := crypto.NewVerificationToken()
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.repo.SetVerificationToken(ctx, user.ID, token, now.Add(VerificationTTL).UnixMilli(), now); err != nil {
		return storageErr("set verification token", err)
	}

	s.deliver(ctx, user, token)
	return nil
}

// GetByID looks up a user. A missing user yields found=false and no error.
func (s *UserService) GetByID(ctx context.Context, id int64) (model.UserResponse, bool, error) {
	return s.lookup(s.repo.GetByID(ctx, id))
}

// GetByUsername looks up a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (model.UserResponse, bool, error) {
	return s.lookup(s.repo.GetByUsername(ctx, strings.TrimSpace(username)))
}

// GetByEmail looks up a user by email address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (model.UserResponse, bool, error) {
	return s.lookup(s.repo.GetByEmail(ctx, normalizeEmail(email)))
}

// DemoUser returns the seeded demo account used by guest mode.
func (s *UserService) DemoUser(ctx context.Context) (model.UserResponse, bool, error) {
	return s.GetByUsername(ctx, repository.DemoUsername)
}

func (s *UserService) lookup(user *model.User, err error) (model.UserResponse, bool, error) {
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, false, nil
		}
		return model.UserResponse{}, false, storageErr("get user", err)
	}
	return user.Public(), true, nil
}

// deliver hands token to the sender. Delivery failure does not undo the
// registration; the user can ask for a resend.
func (s *UserService) deliver(ctx context.Context, user *model.User, token string) {
	if s.sender == nil {
		return
	}
	if err := s.sender.SendVerification(ctx, user.Email, user.Username, token); err != nil {
		slog.Warn("verification email not sent", "user_id", user.ID, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return len(email) <= 254 && emailPattern.MatchString(email)
}
