package server

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/englishaidol/aidol/internal/csvimport"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope is the body of every non-2xx response. Output is set when
// a header problem rejected an upload, so clients can show the diagnostics.
type ErrorEnvelope struct {
	Error  APIError          `json:"error"`
	Output *csvimport.Output `json:"output,omitempty"`
}

var errTooManyRequests = errors.New("too many requests")

func errTooLarge(n int64) error {
	return fmt.Errorf("upload exceeds %d bytes", n)
}

func respondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, envelope(code, err))
}

func abortError(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, envelope(code, err))
}

func envelope(code string, err error) ErrorEnvelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ErrorEnvelope{Error: APIError{Message: msg, Code: code}}
}
