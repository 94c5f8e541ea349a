package schema

import (
	"fmt"
	"strconv"
)

// Type validates the values stored under one preference key.
// Preference values are always strings; a Type decides how many of them a
// key may hold and how each one must parse.
type Type interface {
	// Name returns the type string, e.g. "int" or "[string]".
	Name() string
	// Validate checks every value stored under a key.
	Validate(values []string) error
}

// single enforces the one-value rule shared by scalar types.
func single(name string, values []string) error {
	if len(values) > 1 {
		return fmt.Errorf("expected a single %s, got %d values", name, len(values))
	}
	return nil
}

// StringType accepts any single value.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(values []string) error {
	return single(t.Name(), values)
}

// IntType accepts a single base-10 integer.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(values []string) error {
	if err := single(t.Name(), values); err != nil {
		return err
	}
	for _, v := range values {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("expected int, got %q", v)
		}
	}
	return nil
}

// FloatType accepts a single floating-point number.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(values []string) error {
	if err := single(t.Name(), values); err != nil {
		return err
	}
	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("expected float, got %q", v)
		}
	}
	return nil
}

// BoolType accepts a single value understood by strconv.ParseBool.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(values []string) error {
	if err := single(t.Name(), values); err != nil {
		return err
	}
	for _, v := range values {
		if _, err := strconv.ParseBool(v); err != nil {
			return fmt.Errorf("expected bool, got %q", v)
		}
	}
	return nil
}

// SliceType accepts any number of values of its element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(values []string) error {
	for i, v := range values {
		if err := t.elemType.Validate([]string{v}); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// CustomType applies a user-defined check to a single value.
type CustomType struct {
	name  string
	check func(string) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(values []string) error {
	if err := single(t.name, values); err != nil {
		return err
	}
	for _, v := range values {
		if err := t.check(v); err != nil {
			return err
		}
	}
	return nil
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a float type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Slice creates a multi-valued type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Custom creates a single-valued type validator with a user-defined check.
func Custom(name string, check func(string) error) Type {
	return &CustomType{name: name, check: check}
}

// ParseType converts a type string to a Type.
// Supports "string", "int", "float", "bool" and bracketed slices such as "[int]".
func ParseType(typeStr string) (Type, error) {
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of preference keys to type strings into a Schema.
// Example: {"count": "int", "feeds": "[string]"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
