// Package dispatcher routes include requests to server-side resources.
//
// Resources are plain http.Handler values mounted on a chi router, so any
// handler written for net/http can be included into a render response. The
// dispatcher never lets an included resource touch the response status.
package dispatcher

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aretw0/portlet/internal/logging"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// Registry holds the resources of one portlet application.
type Registry struct {
	mux *chi.Mux

	mu    sync.RWMutex
	named map[string]http.Handler

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithHooks registers lifecycle hooks fired after every include.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		mux:    chi.NewRouter(),
		named:  make(map[string]http.Handler),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle mounts h under a chi route pattern such as "/news/{id}".
func (r *Registry) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// HandleResource mounts a portlet-aware resource.
func (r *Registry) HandleResource(pattern string, res ResourceFunc) {
	r.mux.Handle(pattern, res)
}

// Name registers h under a logical name for NamedDispatcher.
func (r *Registry) Name(name string, h http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = h
}

// RequestDispatcher resolves path, which must start with "/". A query string
// on path is merged into the parameters the resource sees. ok is false when
// no resource matches.
func (r *Registry) RequestDispatcher(path string) (ports.RequestDispatcher, bool, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, false, domain.NewInvalidArgument("dispatch path must start with \"/\": " + path)
	}
	p, rawQuery, _ := strings.Cut(path, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, false, domain.NewInvalidArgument("malformed dispatch query: " + rawQuery)
	}

	if !r.mux.Match(chi.NewRouteContext(), http.MethodGet, p) {
		r.logger.Debug("no resource for dispatch path", "path", p)
		return nil, false, nil
	}
	return &dispatcher{
		reg:     r,
		path:    p,
		query:   query,
		handler: r.mux,
	}, true, nil
}

// NamedDispatcher returns the dispatcher registered under name.
func (r *Registry) NamedDispatcher(name string) (ports.RequestDispatcher, bool) {
	r.mu.RLock()
	h, ok := r.named[name]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return &dispatcher{
		reg:     r,
		path:    "/",
		name:    name,
		handler: h,
	}, true
}
