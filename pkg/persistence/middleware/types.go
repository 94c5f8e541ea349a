package middleware

import "github.com/aretw0/portlet/pkg/ports"

// Middleware allows wrapping a PreferencesStore to add behavior.
type Middleware func(ports.PreferencesStore) ports.PreferencesStore

// Chain wraps store so that the first middleware is the outermost.
func Chain(store ports.PreferencesStore, mws ...Middleware) ports.PreferencesStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
