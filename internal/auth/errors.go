package auth

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned for any login failure that is the caller's
// fault. It carries no detail about which check failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnauthenticated is the parent of every token rejection.
var ErrUnauthenticated = errors.New("unauthenticated")

// Token rejection reasons. Each wraps ErrUnauthenticated.
var (
	ErrTokenMissing    = fmt.Errorf("%w: missing token", ErrUnauthenticated)
	ErrTokenMalformed  = fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	ErrTokenInvalid    = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrTokenExpired    = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrSubjectNotFound = fmt.Errorf("%w: subject not found", ErrUnauthenticated)
)

// rejectionReason returns the metric label for a token rejection.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return "missing_token"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed_header"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrSubjectNotFound):
		return "subject_not_found"
	case errors.Is(err, ErrTokenInvalid):
		return "invalid"
	default:
		return "other"
	}
}
