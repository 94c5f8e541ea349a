package domain

// PreferenceDefinition declares the defaults and constraints of a preference set.
// It is loaded by the host from configuration or descriptor documents.
type PreferenceDefinition struct {
	// Name identifies the portlet the definition applies to.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Defaults are the values visible before anything is stored.
	Defaults map[string][]string `json:"defaults,omitempty" yaml:"defaults,omitempty" mapstructure:"defaults"`

	// ReadOnly lists keys that portlets may read but never modify.
	ReadOnly []string `json:"read_only,omitempty" yaml:"read_only,omitempty" mapstructure:"read_only"`

	// Types maps keys to schema type strings such as "int" or "[string]".
	Types map[string]string `json:"types,omitempty" yaml:"types,omitempty" mapstructure:"types"`
}
