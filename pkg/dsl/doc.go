/*
Package dsl provides a fluent builder for preference definitions.

It declares defaults, read-only keys and value types in Go instead of YAML
or Loam documents, which is handy for tests and for hosts that compute their
definitions at startup.

Example usage:

	b := dsl.New()

	b.Portlet("news").
		Default("count", "5").
		Default("feeds", "world", "sports").
		ReadOnly("source").
		Type("count", "int")

	loader, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	manager := preferences.NewManager(store, preferences.WithLoader(loader))
*/
package dsl
