// Package pipeline orchestrates the blog pipeline from topic to published article.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/jonathan/blog-autopilot/internal/topics"
)

// TopicExistsError is returned when a topic is too close to an already published article
type TopicExistsError struct {
	Topic   string
	Similar []topics.Match
}

func (e *TopicExistsError) Error() string {
	titles := make([]string, 0, len(e.Similar))
	for _, m := range e.Similar {
		titles = append(titles, fmt.Sprintf("%q (%.0f%%)", m.Title, m.Similarity*100))
	}
	return fmt.Sprintf("topic %q is already covered by %s", e.Topic, strings.Join(titles, ", "))
}

// StepError is returned when a step the run cannot continue without fails
type StepError struct {
	Step    string
	Message string
	Cause   error
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pipeline step %s failed: %s: %v", e.Step, e.Message, e.Cause)
	}
	return fmt.Sprintf("pipeline step %s failed: %s", e.Step, e.Message)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
