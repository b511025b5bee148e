package core

import (
	"fmt"
	"strings"
)

// ConfigurationError indicates a missing or invalid credential discovered
// before any specialist dispatch. Fatal for the session.
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// FieldError reports one missing or malformed StructuredPlan field
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// FieldErrors is the ordered validation outcome for an assembled plan
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s: %s", fe.Path, fe.Reason)
	}
	return fmt.Sprintf("plan validation failed: %s", strings.Join(parts, "; "))
}

// Paths returns the field paths in order
func (e FieldErrors) Paths() []string {
	paths := make([]string, len(e))
	for i, fe := range e {
		paths[i] = fe.Path
	}
	return paths
}

// CompletionError indicates the repair budget was exhausted with fields
// still missing or invalid. Fatal for the session.
type CompletionError struct {
	Fields FieldErrors
}

func (e CompletionError) Error() string {
	return fmt.Sprintf("could not complete plan after repair budget: unresolved fields [%s]",
		strings.Join(e.Fields.Paths(), ", "))
}
