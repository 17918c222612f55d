package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rxforms/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size.
// Imports and inline-model prints are the only large bodies.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}

		// Bodies without a Content-Length are cut off while streaming
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
