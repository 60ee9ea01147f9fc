package rest

import (
	"fmt"
	"net/http"
)

// Error is a client-caused failure. It carries the HTTP status code and the
// message that goes into the response body. Anything that is not an *Error
// is treated as an internal error by WriteError and never shown to the
// caller.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// BadRequest returns a 400 error with a field-specific message.
func BadRequest(format string, a ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, a...)}
}

// Unauthorized returns a 401 error.
func Unauthorized(format string, a ...interface{}) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: fmt.Sprintf(format, a...)}
}

// Forbidden returns a 403 error.
func Forbidden(format string, a ...interface{}) *Error {
	return &Error{Status: http.StatusForbidden, Message: fmt.Sprintf(format, a...)}
}

// NotFound returns a 404 error.
func NotFound(format string, a ...interface{}) *Error {
	return &Error{Status: http.StatusNotFound, Message: fmt.Sprintf(format, a...)}
}
