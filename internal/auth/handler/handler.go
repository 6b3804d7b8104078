package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/richardklafter/PriceYakalytics/internal/auth"
	"github.com/richardklafter/PriceYakalytics/internal/auth/provider"
	"github.com/richardklafter/PriceYakalytics/internal/logger"
	"github.com/richardklafter/PriceYakalytics/internal/session"
	"github.com/richardklafter/PriceYakalytics/internal/view"
)

const callbackPath = "/oauth"

// Authorizer turns an authorization code into a session.
type Authorizer interface {
	Authorize(ctx context.Context, code, redirectURI string) (*session.Session, error)
}

type Handler struct {
	providers     *provider.Registry
	authorizer    Authorizer
	codec         *session.Codec
	publicBaseURL string
	stateCheck    bool
}

type Options struct {
	// PublicBaseURL overrides the scheme and host taken from the request
	// when building the callback URI.
	PublicBaseURL string

	// StateCheck binds the consent redirect to a state cookie.
	StateCheck bool
}

func NewHandler(
	registry *provider.Registry,
	authorizer Authorizer,
	codec *session.Codec,
	opts Options,
) *Handler {
	return &Handler{
		providers:     registry,
		authorizer:    authorizer,
		codec:         codec,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		stateCheck:    opts.StateCheck,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/login", h.login)
	r.GET(callbackPath, h.callback)
	r.GET("/logout", h.logout)
}

func (h *Handler) callback(c *gin.Context) {
	if h.stateCheck {
		ok := validateState(c)
		clearState(c)
		if !ok {
			logger.Warn("oauth callback state mismatch", map[string]any{
				"ip": c.ClientIP(),
			})
			h.message(c, http.StatusBadRequest, "Login failed", "The login request expired or was not started here.")
			return
		}
	}

	// Provider declined or the user cancelled consent
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"error": errParam,
			"desc":  c.Query("error_description"),
		})
		h.message(c, http.StatusBadRequest, "Login failed", c.Query("error_description"))
		return
	}

	sess, err := h.authorizer.Authorize(
		c.Request.Context(),
		c.Query("code"),
		h.redirectURI(c.Request),
	)
	if err != nil {
		var exErr *auth.ExchangeError
		switch {
		case errors.Is(err, auth.ErrMissingCode):
			logger.Warn("oauth callback missing code", nil)
			h.message(c, http.StatusBadRequest, "Login failed", "")
		case errors.As(err, &exErr):
			h.message(c, http.StatusBadGateway, "Login failed", "Failed to obtain a token from the identity provider.")
		default:
			logger.Error("oauth callback failed", map[string]any{"error": err})
			h.message(c, http.StatusInternalServerError, "Login failed", "")
		}
		return
	}

	value, err := h.codec.Encode(sess)
	if err != nil {
		logger.Error("session encode failed", map[string]any{"error": err})
		h.message(c, http.StatusInternalServerError, "Login failed", "")
		return
	}

	expiresAt := sess.IssuedAt.Add(h.codec.TTL())
	if !sess.Expiry.IsZero() && sess.Expiry.Before(expiresAt) {
		expiresAt = sess.Expiry
	}
	session.SetCookie(c.Writer, value, expiresAt, session.OptionsFor(c.Request.Host))

	logger.Info("session issued", map[string]any{
		"subject": sess.Subject,
		"ip":      c.ClientIP(),
	})

	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) logout(c *gin.Context) {
	if sess := session.FromRequest(c.Request, h.codec); sess != nil {
		logger.Info("logout", map[string]any{
			"subject": sess.Subject,
			"ip":      c.ClientIP(),
		})
	}

	session.ClearCookie(c.Writer, session.OptionsFor(c.Request.Host))
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) message(c *gin.Context, status int, title, detail string) {
	c.HTML(status, view.MessagePage, gin.H{
		"Title":  title,
		"Detail": detail,
		"Link":   "/login",
	})
}

// redirectURI is the callback registered with the identity provider. It
// must be identical for the consent redirect and the code exchange.
func (h *Handler) redirectURI(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL + callbackPath
	}
	return requestBaseURL(r) + callbackPath
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}
