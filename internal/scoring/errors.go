// Package scoring asks an LLM to judge an article on five bounded dimensions.
package scoring

import "fmt"

// ParseError is returned when a scorer reply is not a JSON object
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("score parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("score parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
