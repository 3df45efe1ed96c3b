package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/blog-autopilot/internal/cms"
	"github.com/jonathan/blog-autopilot/internal/pipeline"
	"github.com/jonathan/blog-autopilot/internal/topics"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: topic - required", (&ErrValidation{Field: "topic", Message: "required"}).Error())
	assert.Equal(t, "run not found: 42", (&ErrNotFound{Resource: "run", ID: "42"}).Error())
	assert.Equal(t, "scorer is not configured on this server", (&ErrUnavailable{Capability: "scorer"}).Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "validation", err: &ErrValidation{Field: "text", Message: "required"}, expected: http.StatusBadRequest},
		{name: "not found", err: &ErrNotFound{Resource: "run", ID: "x"}, expected: http.StatusNotFound},
		{name: "unavailable", err: &ErrUnavailable{Capability: "run history"}, expected: http.StatusServiceUnavailable},
		{
			name:     "topic exists",
			err:      &pipeline.TopicExistsError{Topic: "IA", Similar: []topics.Match{{Title: "IA", Similarity: 1}}},
			expected: http.StatusConflict,
		},
		{
			name:     "missing field wrapped",
			err:      &pipeline.StepError{Step: "publish", Message: "failed", Cause: &cms.MissingFieldError{Field: "slug"}},
			expected: http.StatusUnprocessableEntity,
		},
		{name: "wrapped validation", err: fmt.Errorf("decode: %w", &ErrValidation{}), expected: http.StatusBadRequest},
		{name: "unknown", err: assert.AnError, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Topic string `validate:"required"`
		Max   int    `validate:"lte=5"`
	}

	err := validationError(validator.New().Struct(payload{Topic: "IA", Max: 9}))
	assert.Equal(t, "Max", err.Field)
	assert.Equal(t, "lte=5", err.Message)

	err = validationError(assert.AnError)
	assert.Equal(t, "request", err.Field)
}
