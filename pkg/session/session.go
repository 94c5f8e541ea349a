package session

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// DefaultMaxInactiveInterval applies when WithMaxInactiveInterval is not given.
const DefaultMaxInactiveInterval = 30 * time.Minute

// shared is the per-user state behind every window view.
type shared struct {
	id      string
	created time.Time
	attrs   cmap.ConcurrentMap[string, any]
	ctx     ports.Context
	clock   func() time.Time

	mu           sync.Mutex
	lastAccessed time.Time
	maxInactive  time.Duration
	isNew        bool
	invalid      bool
}

// Session implements ports.Session for one portlet window.
type Session struct {
	*shared
	windowID string
}

// Option configures a Session.
type Option func(*shared)

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *shared) { s.id = id }
}

// WithContext sets the portlet context returned by PortletContext.
func WithContext(ctx ports.Context) Option {
	return func(s *shared) { s.ctx = ctx }
}

// WithMaxInactiveInterval sets the idle timeout. Zero or less never expires.
func WithMaxInactiveInterval(d time.Duration) Option {
	return func(s *shared) { s.maxInactive = d }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *shared) { s.clock = now }
}

// New creates a session viewed from windowID.
func New(windowID string, opts ...Option) *Session {
	s := &shared{
		attrs:       cmap.New[any](),
		clock:       time.Now,
		maxInactive: DefaultMaxInactiveInterval,
		isNew:       true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.created = s.clock()
	s.lastAccessed = s.created
	return &Session{shared: s, windowID: windowID}
}

// View returns the same session seen from another portlet window.
func (s *Session) View(windowID string) *Session {
	return &Session{shared: s.shared, windowID: windowID}
}

// WindowID returns the window the view belongs to.
func (s *Session) WindowID() string { return s.windowID }

func (s *Session) ID() string { return s.id }

func (s *Session) CreationTime() time.Time { return s.created }

func (s *Session) LastAccessedTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

func (s *Session) MaxInactiveInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInactive
}

func (s *Session) SetMaxInactiveInterval(d time.Duration) {
	s.mu.Lock()
	s.maxInactive = d
	s.mu.Unlock()
}

// IsNew reports whether the client has not yet joined the session.
func (s *Session) IsNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isNew
}

// Touch records a client access. Called by the host at the start of a request.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccessed = s.clock()
	s.isNew = false
	s.mu.Unlock()
}

// Expired reports whether the session was idle longer than its max inactive interval.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInactive > 0 && s.clock().Sub(s.lastAccessed) > s.maxInactive
}

func (s *Session) Attribute(name string, scope domain.Scope) (any, error) {
	key, err := s.key(name, scope)
	if err != nil {
		return nil, err
	}
	v, _ := s.attrs.Get(key)
	return v, nil
}

// AttributeNames in application scope lists every stored name, including the
// encoded names of portlet-scope attributes. In portlet scope it lists the
// decoded names of this window only. Names are sorted.
func (s *Session) AttributeNames(scope domain.Scope) ([]string, error) {
	if err := s.checkValid(); err != nil {
		return nil, err
	}
	keys := s.attrs.Keys()
	switch scope {
	case domain.ApplicationScope:
		slices.Sort(keys)
		return keys, nil
	case domain.PortletScope:
		prefix := s.prefix()
		var names []string
		for _, k := range keys {
			if name, ok := strings.CutPrefix(k, prefix); ok {
				names = append(names, name)
			}
		}
		slices.Sort(names)
		return names, nil
	default:
		return nil, domain.NewInvalidArgument("unknown session scope " + scope.String())
	}
}

// SetAttribute binds value under name; a nil value removes the binding.
func (s *Session) SetAttribute(name string, value any, scope domain.Scope) error {
	key, err := s.key(name, scope)
	if err != nil {
		return err
	}
	if value == nil {
		s.attrs.Remove(key)
		return nil
	}
	s.attrs.Set(key, value)
	return nil
}

func (s *Session) RemoveAttribute(name string, scope domain.Scope) error {
	return s.SetAttribute(name, nil, scope)
}

// Invalidate unbinds every attribute. Every view becomes unusable.
func (s *Session) Invalidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invalid {
		return domain.NewInvalidState("session already invalidated")
	}
	s.invalid = true
	s.attrs.Clear()
	return nil
}

func (s *Session) PortletContext() ports.Context { return s.ctx }

func (s *Session) checkValid() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalid {
		return domain.NewInvalidState("session was invalidated")
	}
	return nil
}

func (s *Session) prefix() string {
	return domain.PortletScopeNamespace + s.windowID + "?"
}

func (s *Session) key(name string, scope domain.Scope) (string, error) {
	if err := s.checkValid(); err != nil {
		return "", err
	}
	if name == "" {
		return "", domain.NewInvalidArgument("attribute name must not be empty")
	}
	switch scope {
	case domain.ApplicationScope:
		return name, nil
	case domain.PortletScope:
		return s.prefix() + name, nil
	default:
		return "", domain.NewInvalidArgument("unknown session scope " + scope.String())
	}
}

// EncodeAttributeName returns the stored name of a portlet-scope attribute.
func EncodeAttributeName(windowID, name string) string {
	return domain.PortletScopeNamespace + windowID + "?" + name
}

// DecodeAttributeName strips the portlet-scope encoding from name, if any.
func DecodeAttributeName(name string) string {
	if rest, ok := strings.CutPrefix(name, domain.PortletScopeNamespace); ok {
		if _, attr, found := strings.Cut(rest, "?"); found {
			return attr
		}
	}
	return name
}

// DecodeScope reports the scope an encoded attribute name belongs to.
func DecodeScope(name string) domain.Scope {
	if rest, ok := strings.CutPrefix(name, domain.PortletScopeNamespace); ok && strings.Contains(rest, "?") {
		return domain.PortletScope
	}
	return domain.ApplicationScope
}

var _ ports.Session = (*Session)(nil)
