package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/portlet/pkg/ports"
)

// Mask replaces every value of a sensitive preference at rest.
const Mask = "***"

type piiMiddleware struct {
	next     ports.PreferencesStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks the values of preference keys matching any pattern.
// Masking is one-way: loads return the mask, never the original values.
// Panics on an invalid pattern.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.PreferencesStore) ports.PreferencesStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, key string, values map[string][]string) error {
	masked := make(map[string][]string, len(values))
	for k, vs := range values {
		if m.sensitive(k) {
			out := make([]string, len(vs))
			for i := range out {
				out[i] = Mask
			}
			masked[k] = out
			continue
		}
		masked[k] = vs
	}
	return m.next.Save(ctx, key, masked)
}

func (m *piiMiddleware) sensitive(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, key string) (map[string][]string, error) {
	return m.next.Load(ctx, key)
}

func (m *piiMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
