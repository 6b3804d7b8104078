package middleware

import (
	"context"
	"net/http"

	"github.com/richardklafter/PriceYakalytics/internal/session"
)

// unexported, collision-proof context key
type sessionContextKeyType struct{}

var sessionKey = sessionContextKeyType{}

// SessionFromContext extracts the decoded session from context.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	return s, ok && s != nil
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

type AuthMiddleware struct {
	Codec     *session.Codec
	LoginPath string
}

func NewAuthMiddleware(codec *session.Codec) *AuthMiddleware {
	return &AuthMiddleware{Codec: codec, LoginPath: "/login"}
}

// RequireSession sends visitors without a valid session cookie to the login
// page. An absent, tampered or expired cookie all mean "not logged in".
func (a *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromRequest(r, a.Codec)
		if sess == nil {
			http.Redirect(w, r, a.LoginPath, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
