package schema

import (
	"maps"
	"slices"
)

// Schema maps preference keys to their expected types.
// Example: {"count": Int(), "feeds": Slice(String())}
type Schema map[string]Type

// Validate checks every typed key present in data. Keys absent from data are
// not an error: an unset preference falls back to its default. Failures are
// reported in key order.
func Validate(schema Schema, data map[string][]string) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	for _, key := range slices.Sorted(maps.Keys(schema)) {
		values, exists := data[key]
		if !exists {
			continue
		}
		if err := schema[key].Validate(values); err != nil {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: err.Error(),
				Values: slices.Clone(values),
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateFields validates only the given keys, which must be both typed and present.
func ValidateFields(schema Schema, data map[string][]string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	var errs []error
	for _, key := range fields {
		typ, exists := schema[key]
		if !exists {
			errs = append(errs, &ValidationError{Key: key, Reason: "not defined in schema"})
			continue
		}

		values, present := data[key]
		if !present {
			errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			continue
		}

		if err := typ.Validate(values); err != nil {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: err.Error(),
				Values: slices.Clone(values),
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
