package ports

import (
	"context"

	"github.com/aretw0/portlet/pkg/domain"
)

// Preferences is the persistent key/multi-value configuration of a portlet window.
type Preferences interface {
	IsReadOnly(key string) bool

	// Value returns the first value of key, or def when key has no value.
	Value(key, def string) string
	// Values returns all values of key, or def when key is not set.
	Values(key string, def []string) []string

	// SetValue and SetValues fail with a read-only failure for read-only keys.
	SetValue(key, value string) error
	SetValues(key string, values []string) error

	Names() []string
	// Map returns a copy of every key and its values.
	Map() map[string][]string

	// Reset restores the default of key, or removes it when it has none.
	Reset(key string) error

	// Store validates and persists the pending changes as a single unit.
	// A validation failure is returned unchanged and nothing is persisted.
	Store(ctx context.Context) error
}

// PreferencesValidator accepts or rejects a proposed preference set.
// It is invoked synchronously, exactly once per Store call, before anything
// is persisted. A rejection is reported as a validator failure
// (domain.NewValidatorError) listing the offending keys.
type PreferencesValidator interface {
	Validate(prefs Preferences) error
}

// ValidatorFunc adapts a function to PreferencesValidator.
type ValidatorFunc func(prefs Preferences) error

// Validate calls f(prefs).
func (f ValidatorFunc) Validate(prefs Preferences) error { return f(prefs) }

// PreferencesLoader retrieves preference definitions (defaults, read-only
// keys, value types) by portlet name.
type PreferencesLoader interface {
	// LoadDefinition returns domain.ErrPreferencesNotFound when no definition exists.
	LoadDefinition(ctx context.Context, name string) (*domain.PreferenceDefinition, error)
}
