package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type testForm struct {
	Title string `json:"title" validate:"notblank"`
	Count int    `form:"count" validate:"min=1"`
}

func TestFieldErrors(t *testing.T) {
	validate, translator := NewValidator()

	tests := []struct {
		name string
		err  error
		want map[string]string
	}{
		{name: "no error", err: nil, want: nil},
		{name: "unrelated error", err: errors.New("lol"), want: nil},
		{
			name: "validator errors use json and form names",
			err:  validate.Struct(testForm{Title: "  "}),
			want: map[string]string{
				"title": "this field cannot be blank",
				"count": "count must be 1 or greater",
			},
		},
		{
			name: "wrapped validation error",
			err:  errors.Wrap(NewValidationError(nil, FieldError{Field: "start_week", Error: "too big"}), "binding"),
			want: map[string]string{"start_week": "too big"},
		},
		{
			name: "validation error without fields",
			err:  NewValidationError(errors.New("no files selected")),
			want: map[string]string{"": "no files selected"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldErrors(tt.err, translator))
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Hello", CleanString("  Hello\t"))
	assert.Equal(t, "hello", CleanString(" HeLLo ", true))
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(errors.Wrap(NewValidationError(errors.New("x")), "ctx")))
	assert.False(t, IsValidationError(errors.New("x")))
}

type publicErr struct{ msg string }

func (e publicErr) Error() string         { return "api: " + e.msg }
func (e publicErr) PublicMessage() string { return e.msg }

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil, GenericErrorMessage))
	assert.Equal(t, "duplicate class code", ErrorMessage(errors.Wrap(publicErr{"duplicate class code"}, "confirming"), GenericErrorMessage))
	assert.Equal(t, GenericErrorMessage, ErrorMessage(publicErr{}, GenericErrorMessage))
	assert.Equal(t, "start week out of range", ErrorMessage(NewValidationError(errors.New("start week out of range")), GenericErrorMessage))
	assert.Equal(t, GenericErrorMessage, ErrorMessage(errors.New("dial tcp: connection refused"), GenericErrorMessage))
}
