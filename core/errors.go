package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// FieldMap returns the field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	fields := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		fields[fErr.Field] = fErr.Error
	}
	return fields
}

func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// GenericErrorMessage is shown when a failure carries no message meant for users.
const GenericErrorMessage = "Something went wrong. Please try again later."

// PublicError is an error whose message may be shown to users as is.
type PublicError interface {
	error
	PublicMessage() string
}

// ErrorMessage returns the user-facing message of err, or fallback when err has none.
func ErrorMessage(err error, fallback string) string {
	switch origErr := errors.Cause(err).(type) {
	case nil:
		return ""
	case PublicError:
		if msg := origErr.PublicMessage(); msg != "" {
			return msg
		}
	case *ValidationError:
		if msg := origErr.Error(); msg != "" {
			return msg
		}
	}
	return fallback
}
