// Package cms publishes articles to a Sanity dataset.
package cms

import "fmt"

// MissingFieldError blocks a publish whose document lacks a required field
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("cannot publish: required field %q is empty", e.Field)
}

// Error represents a failed Sanity API call
type Error struct {
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("HTTP status %d: %s", e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("sanity %s error: %s: %v", e.Operation, msg, e.Cause)
	}
	return fmt.Sprintf("sanity %s error: %s", e.Operation, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
