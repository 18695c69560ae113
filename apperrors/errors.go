package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
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

// New creates a new Error.
func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Unauthorized: missing or invalid bearer token.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message, nil)
}

// Forbidden: authenticated but not the operator.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message, nil)
}

// Validation: malformed or missing required fields, invalid enum value,
// empty cart.
func Validation(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

// NotFound: referenced book or order absent.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

// Internal: persistence gateway or other backend failure.
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// Respond writes err as a JSON response. Errors that are not *Error are
// treated as internal server errors without leaking detail to the client.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = New(http.StatusInternalServerError, "internal server error", err)
	}
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
