package dsl

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/portlet/pkg/adapters/memory"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/schema"
)

// Builder collects the definitions of several portlets.
type Builder struct {
	portlets map[string]*PortletBuilder
}

// New creates a new definition builder.
func New() *Builder {
	return &Builder{
		portlets: make(map[string]*PortletBuilder),
	}
}

// Portlet starts the definition of name.
// If the portlet already exists, it returns the existing builder.
func (b *Builder) Portlet(name string) *PortletBuilder {
	if pb, ok := b.portlets[name]; ok {
		return pb
	}
	pb := &PortletBuilder{
		def: domain.PreferenceDefinition{
			Name:     name,
			Defaults: make(map[string][]string),
			Types:    make(map[string]string),
		},
	}
	b.portlets[name] = pb
	return pb
}

// Definitions returns every definition, sorted by name.
func (b *Builder) Definitions() []*domain.PreferenceDefinition {
	out := make([]*domain.PreferenceDefinition, 0, len(b.portlets))
	for _, name := range slices.Sorted(maps.Keys(b.portlets)) {
		def := b.portlets[name].def
		out = append(out, &def)
	}
	return out
}

// Build checks every definition and compiles them into a memory.Loader.
// Types must parse and defaults must satisfy them.
func (b *Builder) Build() (*memory.Loader, error) {
	defs := b.Definitions()
	var errs []error
	for _, def := range defs {
		s, err := schema.ParseTypeMap(def.Types)
		if err != nil {
			errs = append(errs, fmt.Errorf("portlet %s: %w", def.Name, err))
			continue
		}
		if err := schema.Validate(s, def.Defaults); err != nil {
			errs = append(errs, fmt.Errorf("portlet %s defaults: %w", def.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to build definitions: %w", err)
	}
	return memory.NewLoader(defs...), nil
}

// PortletBuilder provides a fluent API for configuring one definition.
type PortletBuilder struct {
	def domain.PreferenceDefinition
}

// Default sets the values visible before anything is stored.
func (p *PortletBuilder) Default(key string, values ...string) *PortletBuilder {
	p.def.Defaults[key] = slices.Clone(values)
	return p
}

// ReadOnly marks keys that portlets may read but never modify.
func (p *PortletBuilder) ReadOnly(keys ...string) *PortletBuilder {
	for _, k := range keys {
		if !slices.Contains(p.def.ReadOnly, k) {
			p.def.ReadOnly = append(p.def.ReadOnly, k)
		}
	}
	return p
}

// Type declares the schema type of key, such as "int" or "[string]".
func (p *PortletBuilder) Type(key, typ string) *PortletBuilder {
	p.def.Types[key] = typ
	return p
}
