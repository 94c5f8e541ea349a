package loam

// DefinitionMetadata is the frontmatter of a preference definition document.
//
//	---
//	name: news
//	defaults:
//	  count: 5
//	  feeds: [world, sports]
//	read_only: [source]
//	types:
//	  count: int
//	  feeds: [string]
//	---
//
// Scalar defaults become single-valued preferences. Lists keep their order.
// A one-element list in types is shorthand for the slice type "[elem]".
type DefinitionMetadata struct {
	Name     string         `json:"name" mapstructure:"name"`
	Defaults map[string]any `json:"defaults" mapstructure:"defaults"`
	ReadOnly []string       `json:"read_only" mapstructure:"read_only"`
	Types    map[string]any `json:"types" mapstructure:"types"`
}
