package auth

import (
	"errors"
	"fmt"
)

// ErrMissingCode means the callback carried no authorization code.
// Nothing was sent upstream.
var ErrMissingCode = errors.New("auth: missing authorization code")

// ExchangeError reports a failed token or userinfo call. Authorization codes
// are single use, so callers restart the login flow instead of retrying.
type ExchangeError struct {
	Stage      string // "token" or "userinfo"
	StatusCode int    // upstream status, 0 when no response was read
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("auth: %s exchange failed with status %d: %v", e.Stage, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("auth: %s exchange failed: %v", e.Stage, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}
