package middleware

import (
	"github.com/gin-gonic/gin"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	// MissingRoles is set for MissingSignatureField failures.
	MissingRoles []string `json:"missing_roles,omitempty"`
}

type ErrorResponse struct {
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

// AbortWithError writes an error response and stops the handler chain.
func AbortWithError(c *gin.Context, status int, detail ErrorDetail) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     detail,
		RequestID: GetRequestID(c),
	})
}

// Abort is AbortWithError for errors without extra detail.
func Abort(c *gin.Context, status int, kind, message string) {
	AbortWithError(c, status, ErrorDetail{Kind: kind, Message: message})
}
