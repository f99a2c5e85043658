package storefront

import (
	"sort"
	"strings"
)

// ValidationError reports a local precondition that failed before any state
// was mutated or any network call was issued. Fields maps the offending
// field name to a human readable reason.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// NewValidationError returns a ValidationError with a single field reason.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		Message: reason,
		Fields:  map[string]string{field: reason},
	}
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
