// Package middleware provides the gin middleware chain shared by every route.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/medextract/pkg/utils/id"
	"github.com/kart-io/medextract/pkg/utils/response"
)

// HeaderXRequestID carries the request ID in both directions.
const HeaderXRequestID = "X-Request-ID"

// maxRequestIDLength bounds IDs accepted from clients.
const maxRequestIDLength = 64

// RequestID reuses the caller's X-Request-ID or generates a ULID, stores it
// under response.RequestIDKey and echoes it in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = id.NewULID()
		}
		c.Set(response.RequestIDKey, requestID)
		c.Header(HeaderXRequestID, requestID)
		c.Next()
	}
}

// GetRequestID returns the request ID set by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(response.RequestIDKey)
}
