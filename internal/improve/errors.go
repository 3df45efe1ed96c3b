// Package improve runs the score-driven rewrite loop over a generated article.
package improve

import "fmt"

// Error is returned when an improvement run aborts before reaching a terminal state.
// The run's last good state is returned alongside it.
type Error struct {
	Iteration int
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("improve error at iteration %d: %s: %v", e.Iteration, e.Message, e.Cause)
	}
	return fmt.Sprintf("improve error at iteration %d: %s", e.Iteration, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
