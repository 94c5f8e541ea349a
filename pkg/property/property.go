// Package property holds response properties: an insertion-ordered multimap
// of string keys to string values.
package property

import (
	"net/http"
	"slices"
	"sync"

	"github.com/aretw0/portlet/pkg/domain"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Set is safe for concurrent use. The zero value is not usable; call New.
type Set struct {
	mu sync.RWMutex
	m  *orderedmap.OrderedMap[string, []string]
}

func New() *Set {
	return &Set{m: orderedmap.New[string, []string]()}
}

// Add appends value under key.
func (s *Set) Add(key, value string) error {
	if key == "" {
		return domain.NewInvalidArgument("property key must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, _ := s.m.Get(key)
	s.m.Set(key, append(slices.Clip(values), value))
	return nil
}

// Set replaces all values under key with value.
func (s *Set) Set(key, value string) error {
	if key == "" {
		return domain.NewInvalidArgument("property key must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m.Set(key, []string{value})
	return nil
}

// Values returns a copy of the values under key in insertion order.
func (s *Set) Values(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.m.Get(key)
	if !ok {
		return nil
	}
	return slices.Clone(values)
}

// Value returns the first value under key, or "".
func (s *Set) Value(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.m.Get(key)
	if !ok || len(values) == 0 {
		return ""
	}
	return values[0]
}

// Names returns the keys in the order they were first set.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, s.m.Len())
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

func (s *Set) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Delete(key)
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Len()
}

// Clear drops every property.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = orderedmap.New[string, []string]()
}

// Header exports the properties as HTTP header fields. Keys are emitted as
// given, without canonicalization.
func (s *Set) Header() http.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := make(http.Header, s.m.Len())
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		h[pair.Key] = slices.Clone(pair.Value)
	}
	return h
}
