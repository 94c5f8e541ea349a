package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/portlet/pkg/domain"
)

// Store implements ports.PreferencesStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]map[string][]string
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]map[string][]string),
	}
}

// Save replaces the set under key with a deep copy of values.
func (s *Store) Save(ctx context.Context, key string, values map[string][]string) error {
	copied := deepCopy(values)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves a copy of the set so callers can't mutate the store.
func (s *Store) Load(ctx context.Context, key string) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.data[key]
	if !ok {
		return nil, domain.ErrPreferencesNotFound
	}
	return deepCopy(values), nil
}

// Delete removes the set.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns stored keys in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func deepCopy(values map[string][]string) map[string][]string {
	out := make(map[string][]string, len(values))
	for k, v := range values {
		out[k] = slices.Clone(v)
	}
	return out
}
