package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mediarelay/internal/security"
)

const signatureHeader = "X-Signature"

// Signature guards the ops API with an HMAC of the request path. When no
// secret is configured the API is open (development setups).
func Signature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		presented := c.GetHeader(signatureHeader)
		if presented == "" || !security.Verify(secret, presented, c.Request.Method, c.Request.URL.Path) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_signature"})
			return
		}
		c.Next()
	}
}
