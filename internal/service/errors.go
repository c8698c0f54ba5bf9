package service

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every input-shape error so callers can match
// the whole class with errors.Is.
var ErrValidation = errors.New("validation failed")

var (
	ErrUsernameInvalid = fmt.Errorf("%w: username must be 3-30 characters of letters, digits, _ or -", ErrValidation)
	ErrEmailInvalid    = fmt.Errorf("%w: email address is invalid", ErrValidation)
	ErrPasswordInvalid = fmt.Errorf("%w: password must be between %d and %d bytes", ErrValidation, minPasswordLen, maxPasswordLen)
	ErrTokenRequired   = fmt.Errorf("%w: token is required", ErrValidation)
	ErrTextRequired    = fmt.Errorf("%w: text is required", ErrValidation)
	ErrTextTooLong     = fmt.Errorf("%w: text must be at most %d characters", ErrValidation, maxTaskTextLen)
	ErrInvalidDueDate  = fmt.Errorf("%w: dueDate must be a real date in YYYY-MM-DD format", ErrValidation)
	ErrInvalidRange    = fmt.Errorf("%w: start must not be after end", ErrValidation)
)

var (
	ErrDuplicateIdentity     = errors.New("username or email already exists")
	ErrNotFound              = errors.New("not found")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrEmailNotVerified      = errors.New("email address has not been verified")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired verification token")
	ErrAlreadyVerified       = errors.New("email address is already verified")
	ErrNotFoundOrForbidden   = errors.New("task not found")
)

// StorageError reports a failure of the underlying database engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
