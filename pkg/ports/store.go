package ports

import (
	"context"
)

// PreferencesStore persists preference sets.
// A set is always written and read as a whole so that a commit is all-or-nothing.
type PreferencesStore interface {
	// Save replaces the set stored under key.
	Save(ctx context.Context, key string, values map[string][]string) error

	// Load retrieves the set stored under key.
	// Returns domain.ErrPreferencesNotFound if nothing is stored.
	Load(ctx context.Context, key string) (map[string][]string, error)

	// Delete removes the set stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys of every stored set.
	List(ctx context.Context) ([]string, error)
}
