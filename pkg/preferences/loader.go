package preferences

import (
	"context"
	"errors"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
)

// ChainLoaders returns a loader asking each of loaders in turn. The first
// definition found wins; a loader failing with anything other than
// domain.ErrPreferencesNotFound stops the search.
func ChainLoaders(loaders ...ports.PreferencesLoader) ports.PreferencesLoader {
	return loaderChain(loaders)
}

type loaderChain []ports.PreferencesLoader

func (c loaderChain) LoadDefinition(ctx context.Context, name string) (*domain.PreferenceDefinition, error) {
	for _, l := range c {
		if l == nil {
			continue
		}
		def, err := l.LoadDefinition(ctx, name)
		if err == nil {
			return def, nil
		}
		if !errors.Is(err, domain.ErrPreferencesNotFound) {
			return nil, err
		}
	}
	return nil, domain.ErrPreferencesNotFound
}
