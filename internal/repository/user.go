package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/taskpad/taskpad-go/internal/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already exists")
)

const userColumns = `id, username, email, password_hash, emailVerified,
	verificationToken, verificationTokenExpires, createdAt, updatedAt`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and sets the generated ID and timestamps on the
// user struct.
func (r *UserRepository) Create(ctx context.Context, user *model.User, now time.Time) error {
	query := `INSERT INTO users (username, email, password_hash, emailVerified,
		verificationToken, verificationTokenExpires, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	ts := formatTime(now)
	result, err := r.db.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.EmailVerified,
		nullString(user.VerificationToken), nullInt64(user.VerificationTokenExpires), ts, ts,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	user.CreatedAt, _ = parseTime(ts)
	user.UpdatedAt = user.CreatedAt
	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByVerificationToken retrieves the user holding token if it has not
// expired at nowMs.
func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string, nowMs int64) (*model.User, error) {
	return r.getOne(ctx,
		`SELECT `+userColumns+` FROM users
		WHERE verificationToken = ? AND verificationTokenExpires > ?`,
		token, nowMs,
	)
}

// MarkVerified sets the user verified and clears the token fields. It only
// matches while the user still holds token, so a token is consumed once.
func (r *UserRepository) MarkVerified(ctx context.Context, id int64, token string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET emailVerified = 1, verificationToken = NULL,
		verificationTokenExpires = NULL, updatedAt = ?
		WHERE id = ? AND verificationToken = ?`,
		formatTime(now), id, token,
	)
	if err != nil {
		return err
	}
	return requireOneRow(result, ErrUserNotFound)
}

// SetVerificationToken replaces the user's pending verification token.
func (r *UserRepository) SetVerificationToken(ctx context.Context, id int64, token string, expiresMs int64, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET verificationToken = ?, verificationTokenExpires = ?, updatedAt = ?
		WHERE id = ?`,
		token, expiresMs, formatTime(now), id,
	)
	if err != nil {
		return err
	}
	return requireOneRow(result, ErrUserNotFound)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	var (
		u                  model.User
		token              sql.NullString
		expires            sql.NullInt64
		createdAt, updated string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.EmailVerified,
		&token, &expires, &createdAt, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if token.Valid {
		u.VerificationToken = &token.String
	}
	if expires.Valid {
		u.VerificationTokenExpires = &expires.Int64
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}

	return &u, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

// requireOneRow maps an UPDATE or DELETE that touched nothing to notFound.
func requireOneRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
