package middleware

import (
	"fmt"
	"net/http"
	"rewear/internal/apperr"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps the request body. Requests declaring a larger
// Content-Length are refused up front; the rest fail while reading.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, TooLarge(maxBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// TooLarge is the error returned for an oversized request.
func TooLarge(maxBytes int64) error {
	return apperr.TooLarge(fmt.Sprintf("Request is larger than %d MB", maxBytes>>20))
}
