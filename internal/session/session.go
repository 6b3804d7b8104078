package session

import "time"

// Session is what a successful login leaves in the client's cookie.
// It is never mutated; a new login replaces it wholesale.
type Session struct {
	Subject     string         `json:"sub"`
	Email       string         `json:"email,omitempty"`
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type,omitempty"`
	IssuedAt    time.Time      `json:"issued_at"`
	Expiry      time.Time      `json:"expiry"`
	Claims      map[string]any `json:"claims,omitempty"`
}

// Expired reports whether the session is past its expiry at t.
func (s *Session) Expired(t time.Time) bool {
	return !s.Expiry.IsZero() && !t.Before(s.Expiry)
}
