// Package steps defines the blog pipeline steps, their categories and the
// dependencies between them.
package steps

import (
	"fmt"

	dbpkg "github.com/jonathan/blog-autopilot/internal/db"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Dependencies []string `json:"dependencies"`
	Optional     []string `json:"optional,omitempty"`
}

// Order lists the steps in execution order
var Order = []string{
	dbpkg.StepGuard,
	dbpkg.StepKeywords,
	dbpkg.StepSearch,
	dbpkg.StepDraft,
	dbpkg.StepScore,
	dbpkg.StepImprove,
	dbpkg.StepMetadataFR,
	dbpkg.StepTranslate,
	dbpkg.StepSEOReport,
	dbpkg.StepReview,
	dbpkg.StepPublish,
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	dbpkg.StepGuard: {
		Name:     dbpkg.StepGuard,
		Category: dbpkg.CategoryResearch,
	},
	dbpkg.StepKeywords: {
		Name:     dbpkg.StepKeywords,
		Category: dbpkg.CategoryResearch,
		Optional: []string{dbpkg.StepGuard},
	},
	dbpkg.StepSearch: {
		Name:     dbpkg.StepSearch,
		Category: dbpkg.CategoryResearch,
		Optional: []string{dbpkg.StepGuard},
	},
	dbpkg.StepDraft: {
		Name:         dbpkg.StepDraft,
		Category:     dbpkg.CategoryContent,
		Dependencies: []string{dbpkg.StepKeywords},
		Optional:     []string{dbpkg.StepSearch},
	},
	dbpkg.StepScore: {
		Name:         dbpkg.StepScore,
		Category:     dbpkg.CategoryAnalysis,
		Dependencies: []string{dbpkg.StepDraft},
	},
	dbpkg.StepImprove: {
		Name:         dbpkg.StepImprove,
		Category:     dbpkg.CategoryContent,
		Dependencies: []string{dbpkg.StepScore},
	},
	dbpkg.StepMetadataFR: {
		Name:         dbpkg.StepMetadataFR,
		Category:     dbpkg.CategoryContent,
		Dependencies: []string{dbpkg.StepDraft},
		Optional:     []string{dbpkg.StepImprove},
	},
	dbpkg.StepTranslate: {
		Name:         dbpkg.StepTranslate,
		Category:     dbpkg.CategoryContent,
		Dependencies: []string{dbpkg.StepMetadataFR},
	},
	dbpkg.StepSEOReport: {
		Name:         dbpkg.StepSEOReport,
		Category:     dbpkg.CategoryAnalysis,
		Dependencies: []string{dbpkg.StepMetadataFR},
	},
	dbpkg.StepReview: {
		Name:         dbpkg.StepReview,
		Category:     dbpkg.CategoryPublishing,
		Dependencies: []string{dbpkg.StepMetadataFR},
		Optional:     []string{dbpkg.StepTranslate, dbpkg.StepSEOReport},
	},
	dbpkg.StepPublish: {
		Name:         dbpkg.StepPublish,
		Category:     dbpkg.CategoryPublishing,
		Dependencies: []string{dbpkg.StepMetadataFR},
		Optional:     []string{dbpkg.StepTranslate},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s is missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Category returns the category of a step, or "" for an unknown step
func Category(stepName string) string {
	return StepRegistry[stepName].Category
}

// Position returns the 1-based position of a step in Order and the step count
func Position(stepName string) (int, int) {
	for i, name := range Order {
		if name == stepName {
			return i + 1, len(Order)
		}
	}
	return 0, len(Order)
}

// ValidateDependencies checks that every required dependency of a step is in completed
func ValidateDependencies(stepName string, completed map[string]bool) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}
	return nil
}

// Definitions returns the step definitions in execution order
func Definitions() []StepDefinition {
	defs := make([]StepDefinition, 0, len(Order))
	for _, name := range Order {
		defs = append(defs, StepRegistry[name])
	}
	return defs
}
