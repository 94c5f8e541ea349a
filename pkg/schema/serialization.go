package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TypeMap returns the type strings of the schema.
func (s Schema) TypeMap() (map[string]string, error) {
	raw := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("key %s: type is nil", key)
		}
		raw[key] = typ.Name()
	}
	return raw, nil
}

// MarshalJSON serializes the schema as a map of keys to type strings.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	raw, err := s.TypeMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// UnmarshalJSON deserializes the schema from a map of keys to type strings.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalYAML lets a schema be declared inline in YAML configuration.
func (s *Schema) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
