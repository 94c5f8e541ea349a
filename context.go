package portlet

import (
	"io/fs"
	"log/slog"
	"maps"
	"mime"
	"path"
	"slices"

	"github.com/aretw0/portlet/internal/logging"
	"github.com/aretw0/portlet/pkg/dispatcher"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// DefaultServerInfo is reported by AppContext.ServerInfo unless overridden.
const DefaultServerInfo = "portlet-go/" + Version

// AppContext implements ports.Context for one portlet application.
type AppContext struct {
	name       string
	serverInfo string
	registry   *dispatcher.Registry
	resources  fs.FS
	params     map[string]string
	attrs      cmap.ConcurrentMap[string, any]
	logger     *slog.Logger
}

// ContextOption configures an AppContext.
type ContextOption func(*AppContext)

func WithServerInfo(info string) ContextOption {
	return func(c *AppContext) { c.serverInfo = info }
}

// WithRegistry sets the resources reachable through RequestDispatcher.
func WithRegistry(r *dispatcher.Registry) ContextOption {
	return func(c *AppContext) { c.registry = r }
}

// WithResources sets the static resources of the application.
func WithResources(fsys fs.FS) ContextOption {
	return func(c *AppContext) { c.resources = fsys }
}

func WithContextParameters(params map[string]string) ContextOption {
	return func(c *AppContext) { c.params = maps.Clone(params) }
}

func WithContextLogger(logger *slog.Logger) ContextOption {
	return func(c *AppContext) { c.logger = logger }
}

// NewAppContext creates the context of the application named name.
func NewAppContext(name string, opts ...ContextOption) *AppContext {
	c := &AppContext{
		name:       name,
		serverInfo: DefaultServerInfo,
		attrs:      cmap.New[any](),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = dispatcher.New(dispatcher.WithLogger(c.logger))
	}
	if c.resources == nil {
		c.resources = emptyFS{}
	}
	return c
}

func (c *AppContext) ServerInfo() string { return c.serverInfo }

func (c *AppContext) PortletContextName() string { return c.name }

func (c *AppContext) MajorVersion() int { return MajorVersion }

func (c *AppContext) MinorVersion() int { return MinorVersion }

// Registry returns the dispatcher registry, for registering resources.
func (c *AppContext) Registry() *dispatcher.Registry { return c.registry }

func (c *AppContext) RequestDispatcher(p string) (ports.RequestDispatcher, bool, error) {
	return c.registry.RequestDispatcher(p)
}

func (c *AppContext) NamedDispatcher(name string) (ports.RequestDispatcher, bool) {
	return c.registry.NamedDispatcher(name)
}

func (c *AppContext) Resources() fs.FS { return c.resources }

// MimeType guesses from the file extension; "" when unknown.
func (c *AppContext) MimeType(file string) string {
	return mime.TypeByExtension(path.Ext(file))
}

func (c *AppContext) Attribute(name string) any {
	v, _ := c.attrs.Get(name)
	return v
}

func (c *AppContext) AttributeNames() []string {
	names := c.attrs.Keys()
	slices.Sort(names)
	return names
}

// SetAttribute binds value under name; a nil value removes the binding.
func (c *AppContext) SetAttribute(name string, value any) error {
	if name == "" {
		return domain.NewInvalidArgument("attribute name must not be empty")
	}
	if value == nil {
		c.attrs.Remove(name)
		return nil
	}
	c.attrs.Set(name, value)
	return nil
}

func (c *AppContext) RemoveAttribute(name string) error {
	return c.SetAttribute(name, nil)
}

func (c *AppContext) InitParameter(name string) string { return c.params[name] }

func (c *AppContext) InitParameterNames() []string {
	return slices.Sorted(maps.Keys(c.params))
}

func (c *AppContext) Log(msg string, args ...any) {
	c.logger.Info(msg, append([]any{"context", c.name}, args...)...)
}

var _ ports.Context = (*AppContext)(nil)

type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Config implements ports.Config.
type Config struct {
	name   string
	ctx    ports.Context
	params map[string]string
}

// NewConfig describes the portlet name deployed in ctx.
func NewConfig(name string, ctx ports.Context, params map[string]string) *Config {
	return &Config{name: name, ctx: ctx, params: maps.Clone(params)}
}

func (c *Config) PortletName() string { return c.name }

func (c *Config) PortletContext() ports.Context { return c.ctx }

func (c *Config) InitParameter(name string) string { return c.params[name] }

func (c *Config) InitParameterNames() []string {
	return slices.Sorted(maps.Keys(c.params))
}

var _ ports.Config = (*Config)(nil)
