// Package apperr maps service failures onto the HTTP statuses the API
// exposes. Handlers return *Error values; Handle writes the response.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"selah/common"
)

type Kind int

const (
	Internal Kind = iota
	BadRequest
	Unauthorized
	Forbidden
	NotFound
)

var statusByKind = map[Kind]int{
	Internal:     http.StatusInternalServerError,
	BadRequest:   http.StatusBadRequest,
	Unauthorized: http.StatusUnauthorized,
	Forbidden:    http.StatusForbidden,
	NotFound:     http.StatusNotFound,
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Handle writes the JSON error body for err. Anything that is not an *Error,
// and every Internal error, collapses to a logged 500; clients only ever see
// the status and a plain message.
func Handle(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		common.Logger.Error("unexpected error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status, ok := statusByKind[appErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		common.Logger.Error(appErr.Message,
			zap.String("path", c.Request.URL.Path),
			zap.Error(appErr.Err))
	}

	c.JSON(status, gin.H{"error": appErr.Message})
}
