package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/canvasmail/backend/internal/shared/id"
)

// HeaderRequestID is the request correlation header
const HeaderRequestID = "X-Request-ID"

// RequestID tags every request with a correlation ID, honoring one
// supplied by the dashboard client
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = id.NewRequestID().String()
		}
		c.Set("request_id", reqID)
		c.Header(HeaderRequestID, reqID)
		c.Next()
	}
}
