package gateway

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Error is a non-2xx response of the API.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Message    string // the `error` of the API's error envelope, if any
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// PublicMessage is the server-supplied message, shown to users verbatim.
func (e *Error) PublicMessage() string { return e.Message }

// StatusCode returns the HTTP status of an API error, or 0 for any other error (eg. network failures).
func StatusCode(err error) int {
	if apiErr, ok := errors.Cause(err).(*Error); ok {
		return apiErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

func IsUnauthorized(err error) bool { return StatusCode(err) == http.StatusUnauthorized }

// errorEnvelope is the body of non-2xx responses.
type errorEnvelope struct {
	Error string `json:"error"`
}

// Message returns the server-supplied message of an API error, or fallback when there is none.
func Message(err error, fallback string) string {
	if apiErr, ok := errors.Cause(err).(*Error); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
