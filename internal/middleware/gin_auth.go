package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinRequireSession adapts the net/http RequireSession middleware to Gin.
func GinRequireSession(auth *AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		handler := auth.RequireSession(next)
		handler.ServeHTTP(c.Writer, c.Request)

		// If the middleware already answered (redirect), stop the Gin chain
		if c.Writer.Written() {
			c.Abort()
			return
		}
	}
}
