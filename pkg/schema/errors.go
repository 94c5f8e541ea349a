package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single key validation failure.
type ValidationError struct {
	Key    string   // Preference key
	Reason string   // Human-readable reason for failure
	Values []string // The values that failed validation
}

func (e *ValidationError) Error() string {
	if e.Values == nil {
		return fmt.Sprintf("key %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("key %q: %s (values %q)", e.Key, e.Reason, e.Values)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Keys returns the failing keys in report order.
func (e *AggregateError) Keys() []string {
	keys := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		var verr *ValidationError
		if errors.As(err, &verr) {
			keys = append(keys, verr.Key)
		}
	}
	return keys
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
