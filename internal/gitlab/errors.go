package gitlab

import "fmt"

// TransientError is a network failure, a 5xx, or a 429. The command can be
// re-issued unchanged.
type TransientError struct {
	Op         string
	StatusCode int // 0 for network failures
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gitlab %s: network error: %v (try again)", e.Op, e.Err)
	}
	return fmt.Sprintf("gitlab %s: server returned %d (try again): %v", e.Op, e.StatusCode, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// AuthorizationError is a 401 or 403. The credential has been marked
// expired, so the next call re-acquires a token.
type AuthorizationError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("gitlab %s: not authorized (%d), re-authenticating on next request: %v", e.Op, e.StatusCode, e.Err)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }
