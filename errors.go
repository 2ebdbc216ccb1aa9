package users

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrNoEmptyString is returned when a plaintext password is empty
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the verification failure for a wrong
// password. Callers must not surface it as-is; see ErrInvalidCredentials.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials is the uniform login failure. Unknown usernames and
// wrong passwords both map here so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid username or password", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrUserTaken is the uniform registration conflict. It never names the
// field that collided.
var ErrUserTaken = errors.New("username or email is already taken", errors.CategoryConflict).
	WithTextCode("USER_TAKEN").
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired rejects tokens whose expiry has passed
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignature rejects tokens whose signature does not verify
var ErrTokenSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode("TOKEN_SIGNATURE").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed rejects tokens that cannot be parsed at all
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is the lookup failure for downstream, authenticated
// operations (never for login, which reports ErrInvalidCredentials).
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// IsAuthFailure reports whether err classifies as an authentication failure
func IsAuthFailure(err error) bool {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.Category == errors.CategoryAuth
}

// IsConflict reports whether err classifies as a uniqueness conflict
func IsConflict(err error) bool {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.Category == errors.CategoryConflict
}

// IsValidationFailure reports whether err classifies as bad caller input
func IsValidationFailure(err error) bool {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.Category == errors.CategoryValidation || rich.Category == errors.CategoryBadInput
}

// IsUniqueViolation will check for driver-level unique constraint errors.
// The store enforces uniqueness atomically; a concurrent duplicate insert
// surfaces here rather than in the pre-check.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
