// Package generation writes, rewrites, SEO-packages and translates articles with an LLM.
package generation

import "fmt"

// Error represents a failed generation step
type Error struct {
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
