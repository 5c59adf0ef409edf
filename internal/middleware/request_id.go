package middleware

import (
	"github.com/gin-gonic/gin"

	"mediarelay/internal/ids"
)

const requestIDHeader = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ids.New()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}
