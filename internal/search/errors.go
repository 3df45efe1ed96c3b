// Package search gathers research material for an article from a web search provider.
package search

import "fmt"

// Error represents a search provider failure
type Error struct {
	Provider string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	prefix := "search error"
	if e.Provider != "" {
		prefix = e.Provider + " search error"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
