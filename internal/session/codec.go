package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is how long an issued cookie stays valid.
const DefaultTTL = time.Hour

var ErrNoSecret = errors.New("session: signing secret is required")

type claims struct {
	Session Session `json:"session"`
	jwt.RegisteredClaims
}

// Codec turns a Session into a signed, expiring cookie value and back.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the lifetime applied to encoded sessions.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode signs the session. The cookie expires at the session expiry or
// after the codec TTL, whichever comes first.
func (c *Codec) Encode(s *Session) (string, error) {
	if s == nil || s.Subject == "" {
		return "", errors.New("session: subject is required")
	}

	now := c.now()
	expiresAt := now.Add(c.ttl)
	if !s.Expiry.IsZero() && s.Expiry.Before(expiresAt) {
		expiresAt = s.Expiry
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Session: *s,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   s.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("session: failed to sign: %w", err)
	}
	return signed, nil
}

// Decode returns the session carried by value, or nil when the value is
// empty, not signed by this codec, expired or malformed.
func (c *Codec) Decode(value string) *Session {
	if value == "" {
		return nil
	}

	var cl claims
	token, err := jwt.ParseWithClaims(
		value,
		&cl,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil
	}

	if cl.Session.Subject == "" || cl.Session.Subject != cl.Subject {
		return nil
	}

	s := cl.Session
	return &s
}
