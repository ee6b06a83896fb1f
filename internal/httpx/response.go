package httpx

import (
	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	MsgUnexpected = "An unexpected error occurred"
)

// Envelope wraps every JSON response body.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Success(c *gin.Context, code int, msg string, data any) {
	c.JSON(code, Envelope{Status: StatusSuccess, Message: msg, Data: data})
}

// Fail writes the error envelope and stops the handler chain.
func Fail(c *gin.Context, code int, msg string, data any) {
	c.AbortWithStatusJSON(code, Envelope{Status: StatusError, Message: msg, Data: data})
}
