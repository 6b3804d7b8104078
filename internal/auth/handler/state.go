package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/richardklafter/PriceYakalytics/internal/session"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
)

// generateState issues a state value bound to a short-lived cookie. Only
// used when state checking is switched on.
func generateState(c *gin.Context) (string, error) {
	state, err := session.GenerateNonce()
	if err != nil {
		return "", err
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   !session.IsLocalHost(c.Request.Host),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateTTL.Seconds()),
	})

	return state, nil
}

func validateState(c *gin.Context) bool {
	stateQuery := c.Query("state")
	if stateQuery == "" {
		return false
	}

	cookie, err := c.Request.Cookie(stateCookieName)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(stateQuery)) == 1
}

func clearState(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   !session.IsLocalHost(c.Request.Host),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
