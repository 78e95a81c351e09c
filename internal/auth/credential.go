package auth

import (
	"errors"
	"fmt"
	"time"
)

// Credential is an OAuth2 token triple.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // zero when unknown
}

// State is a step of the credential lifecycle.
type State int

const (
	StateAbsent State = iota
	StatePendingAuthorization
	StateValid
	StateExpired
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePendingAuthorization:
		return "pending-authorization"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AuthTimeoutError is returned when the browser redirect does not arrive in time.
type AuthTimeoutError struct {
	Timeout time.Duration
}

func (e *AuthTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for the authorization callback; re-run to try again", e.Timeout)
}

// AuthExchangeError wraps a failed authorization-code exchange.
type AuthExchangeError struct {
	Err error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("failed to exchange authorization code: %v; re-run to log in again", e.Err)
}

func (e *AuthExchangeError) Unwrap() error { return e.Err }

// RefreshRejectedError means the provider refused the refresh token itself,
// so only a new browser login can recover.
type RefreshRejectedError struct {
	Err error
}

func (e *RefreshRejectedError) Error() string {
	return fmt.Sprintf("refresh token rejected: %v", e.Err)
}

func (e *RefreshRejectedError) Unwrap() error { return e.Err }

// ErrStateMismatch is returned when the callback's state parameter does not
// match the one sent with the authorize request.
var ErrStateMismatch = errors.New("oauth state mismatch, possible CSRF attempt")
