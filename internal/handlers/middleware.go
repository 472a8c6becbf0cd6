package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userId"

	errMissingAuth = "missing Authorization header"
	errAuthFormat  = "invalid Authorization header format"
	errBadToken    = "invalid or expired token"
	errBadCreds    = "invalid credentials"
)

// authMiddleware accepts "Bearer <jwt>" or HTTP basic credentials of a stored
// user. It lets every request through when authentication is disabled.
func (h *Handler) authMiddleware(c *gin.Context) {
	if !h.auth {
		c.Next()
		return
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		c.Header("WWW-Authenticate", `Basic realm="irrigation"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingAuth})
		return
	}

	if username, password, ok := c.Request.BasicAuth(); ok {
		userID, err := h.services.Authenticate(c.Request.Context(), username, password)
		if err != nil {
			if h.log != nil {
				h.log.Infow("auth_basic_rejected", "username", username, "err", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errBadCreds})
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errAuthFormat})
		return
	}

	userID, err := h.services.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errBadToken})
		return
	}

	c.Set(ctxUserID, userID)
	c.Next()
}
