package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richardklafter/PriceYakalytics/internal/logger"
	"github.com/richardklafter/PriceYakalytics/internal/view"
)

type loginLink struct {
	Name string
	URL  string
}

// login renders one link per hosted login page. The user picks one, consents
// and comes back to /oauth with a code.
func (h *Handler) login(c *gin.Context) {
	state := ""
	if h.stateCheck {
		var err error
		state, err = generateState(c)
		if err != nil {
			logger.Error("state generation failed", map[string]any{"error": err})
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
	}

	redirectURI := h.redirectURI(c.Request)

	providers := h.providers.All()
	links := make([]loginLink, 0, len(providers))
	for _, p := range providers {
		links = append(links, loginLink{
			Name: p.Name(),
			URL:  p.AuthCodeURL(redirectURI, state),
		})
	}

	c.HTML(http.StatusOK, view.LoginPage, gin.H{
		"Providers": links,
	})
}
