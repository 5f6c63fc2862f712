package server

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the Anthropic-shaped error body returned by every endpoint
// except the models routes.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error type and human-readable message.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const (
	errTypeAuthentication = "authentication_error"
	errTypeInvalidRequest = "invalid_request_error"
	errTypeAPI            = "api_error"
)

func abortWithError(c *gin.Context, status int, errType, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Type:  "error",
		Error: ErrorDetail{Type: errType, Message: message},
	})
}

// abortUnavailable is the models-route error shape: a bare error object
// without the outer type tag.
func abortUnavailable(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"type": "unavailable", "message": message},
	})
}
