package memory

import (
	"context"
	"slices"

	"github.com/aretw0/portlet/pkg/domain"
)

// Loader implements ports.PreferencesLoader over a fixed set of definitions.
type Loader struct {
	defs map[string]*domain.PreferenceDefinition
}

// NewLoader indexes defs by name.
func NewLoader(defs ...*domain.PreferenceDefinition) *Loader {
	l := &Loader{defs: make(map[string]*domain.PreferenceDefinition, len(defs))}
	for _, d := range defs {
		l.defs[d.Name] = d
	}
	return l
}

// LoadDefinition returns a copy of the definition registered under name.
func (l *Loader) LoadDefinition(ctx context.Context, name string) (*domain.PreferenceDefinition, error) {
	def, ok := l.defs[name]
	if !ok {
		return nil, domain.ErrPreferencesNotFound
	}
	out := *def
	out.Defaults = deepCopy(def.Defaults)
	out.ReadOnly = slices.Clone(def.ReadOnly)
	return &out, nil
}
