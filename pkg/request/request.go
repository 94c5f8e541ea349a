// Package request provides reference implementations of the action and
// render requests handed to a portlet.
//
// A Request is assembled by the host with functional options and is then
// read-only from the portlet's point of view, except for its attributes.
package request

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"sync"

	"github.com/aretw0/portlet/pkg/body"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"golang.org/x/text/language"
)

// Request implements ports.Request.
type Request struct {
	ctx context.Context

	mode          domain.PortletMode
	state         domain.WindowState
	allowedModes  []domain.PortletMode
	allowedStates []domain.WindowState

	prefs      ports.Preferences
	portal     ports.PortalContext
	properties map[string][]string
	params     map[string][]string

	sessionMu  sync.Mutex
	session    ports.Session
	newSession func() ports.Session
	sessionID  string

	authType    string
	contextPath string
	remoteUser  string
	roles       map[string]bool

	attrMu sync.RWMutex
	attrs  map[string]any

	secure       bool
	contentTypes []string
	locales      []language.Tag
	scheme       string
	serverName   string
	serverPort   int
}

// Option configures a Request.
type Option func(*Request)

func WithContext(ctx context.Context) Option {
	return func(r *Request) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

func WithMode(mode domain.PortletMode) Option {
	return func(r *Request) { r.mode = mode }
}

func WithState(state domain.WindowState) Option {
	return func(r *Request) { r.state = state }
}

// WithAllowedModes restricts the modes the portlet may switch to. Without it
// every mode supported by the portal is allowed.
func WithAllowedModes(modes ...domain.PortletMode) Option {
	return func(r *Request) { r.allowedModes = slices.Clone(modes) }
}

// WithAllowedStates restricts the window states, like WithAllowedModes.
func WithAllowedStates(states ...domain.WindowState) Option {
	return func(r *Request) { r.allowedStates = slices.Clone(states) }
}

func WithPreferences(prefs ports.Preferences) Option {
	return func(r *Request) { r.prefs = prefs }
}

func WithPortal(portal ports.PortalContext) Option {
	return func(r *Request) { r.portal = portal }
}

// WithProperty adds a container property value.
func WithProperty(name string, values ...string) Option {
	return func(r *Request) { r.properties[name] = append(r.properties[name], values...) }
}

// WithParameters merges params into the request parameters.
func WithParameters(params map[string][]string) Option {
	return func(r *Request) { mergeParams(r.params, params) }
}

// WithSession binds an existing session.
func WithSession(s ports.Session) Option {
	return func(r *Request) { r.session = s }
}

// WithSessionFactory is used by PortletSession(true) when no session is bound.
func WithSessionFactory(newSession func() ports.Session) Option {
	return func(r *Request) { r.newSession = newSession }
}

// WithRequestedSessionID records the session id sent by the client.
func WithRequestedSessionID(id string) Option {
	return func(r *Request) { r.sessionID = id }
}

// WithUser authenticates the request.
func WithUser(name, authType string, roles ...string) Option {
	return func(r *Request) {
		r.remoteUser = name
		r.authType = authType
		for _, role := range roles {
			r.roles[role] = true
		}
	}
}

// WithUserInfo exposes info under the domain.UserInfo attribute.
func WithUserInfo(info map[string]string) Option {
	return func(r *Request) { r.attrs[domain.UserInfo] = maps.Clone(info) }
}

func WithContextPath(path string) Option {
	return func(r *Request) { r.contextPath = path }
}

func WithSecure(secure bool) Option {
	return func(r *Request) {
		r.secure = secure
		if secure {
			r.scheme = "https"
			if r.serverPort == 80 {
				r.serverPort = 443
			}
		}
	}
}

// WithResponseContentTypes lists the acceptable response content types, most
// preferred first.
func WithResponseContentTypes(types ...string) Option {
	return func(r *Request) { r.contentTypes = slices.Clone(types) }
}

// WithLocales lists the accepted locales, most preferred first.
func WithLocales(tags ...language.Tag) Option {
	return func(r *Request) { r.locales = slices.Clone(tags) }
}

func WithServer(scheme, name string, port int) Option {
	return func(r *Request) {
		r.scheme = scheme
		r.serverName = name
		r.serverPort = port
	}
}

func newRequest(opts []Option) *Request {
	r := &Request{
		ctx:          context.Background(),
		mode:         domain.ModeView,
		state:        domain.StateNormal,
		portal:       DefaultPortal(),
		properties:   make(map[string][]string),
		params:       make(map[string][]string),
		roles:        make(map[string]bool),
		attrs:        make(map[string]any),
		contentTypes: []string{domain.ContentTypeHTML},
		scheme:       "http",
		serverName:   "localhost",
		serverPort:   80,
	}
	for _, opt := range opts {
		opt(r)
	}
	if len(r.locales) == 0 {
		r.locales = []language.Tag{language.English}
	}
	return r
}

func (r *Request) Context() context.Context { return r.ctx }

func (r *Request) PortletMode() domain.PortletMode { return r.mode }

func (r *Request) WindowState() domain.WindowState { return r.state }

func (r *Request) IsPortletModeAllowed(mode domain.PortletMode) bool {
	allowed := r.allowedModes
	if allowed == nil {
		allowed = r.portal.SupportedPortletModes()
	}
	return slices.ContainsFunc(allowed, mode.Equal)
}

func (r *Request) IsWindowStateAllowed(state domain.WindowState) bool {
	allowed := r.allowedStates
	if allowed == nil {
		allowed = r.portal.SupportedWindowStates()
	}
	return slices.ContainsFunc(allowed, state.Equal)
}

func (r *Request) Preferences() ports.Preferences { return r.prefs }

func (r *Request) PortletSession(create bool) ports.Session {
	r.sessionMu.Lock()
	defer r.sessionMu.Unlock()

	if r.session != nil {
		return r.session
	}
	if !create || r.newSession == nil {
		return nil
	}
	r.session = r.newSession()
	return r.session
}

func (r *Request) Property(name string) string {
	if values := r.properties[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func (r *Request) Properties(name string) []string { return slices.Clone(r.properties[name]) }

func (r *Request) PropertyNames() []string { return slices.Sorted(maps.Keys(r.properties)) }

func (r *Request) PortalContext() ports.PortalContext { return r.portal }

func (r *Request) AuthType() string { return r.authType }

func (r *Request) ContextPath() string { return r.contextPath }

func (r *Request) RemoteUser() string { return r.remoteUser }

func (r *Request) IsUserInRole(role string) bool { return r.roles[role] }

func (r *Request) Attribute(name string) any {
	r.attrMu.RLock()
	defer r.attrMu.RUnlock()
	return r.attrs[name]
}

func (r *Request) AttributeNames() []string {
	r.attrMu.RLock()
	defer r.attrMu.RUnlock()
	return slices.Sorted(maps.Keys(r.attrs))
}

func (r *Request) SetAttribute(name string, value any) error {
	if name == "" {
		return domain.NewInvalidArgument("attribute name must not be empty")
	}
	r.attrMu.Lock()
	defer r.attrMu.Unlock()

	if value == nil {
		delete(r.attrs, name)
		return nil
	}
	r.attrs[name] = value
	return nil
}

func (r *Request) RemoveAttribute(name string) error {
	return r.SetAttribute(name, nil)
}

func (r *Request) Parameter(name string) string {
	if values := r.params[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func (r *Request) ParameterNames() []string { return slices.Sorted(maps.Keys(r.params)) }

func (r *Request) ParameterValues(name string) []string { return slices.Clone(r.params[name]) }

func (r *Request) ParameterMap() map[string][]string {
	m := make(map[string][]string, len(r.params))
	for k, v := range r.params {
		m[k] = slices.Clone(v)
	}
	return m
}

func (r *Request) IsSecure() bool { return r.secure }

func (r *Request) RequestedSessionID() string { return r.sessionID }

func (r *Request) IsRequestedSessionIDValid() bool {
	if r.sessionID == "" {
		return false
	}
	s := r.PortletSession(false)
	return s != nil && s.ID() == r.sessionID
}

func (r *Request) ResponseContentType() string {
	if len(r.contentTypes) == 0 {
		return ""
	}
	return r.contentTypes[0]
}

func (r *Request) ResponseContentTypes() []string { return slices.Clone(r.contentTypes) }

func (r *Request) Locale() language.Tag { return r.locales[0] }

func (r *Request) Locales() []language.Tag { return slices.Clone(r.locales) }

func (r *Request) Scheme() string { return r.scheme }

func (r *Request) ServerName() string { return r.serverName }

func (r *Request) ServerPort() int { return r.serverPort }

// ActionRequest carries a body in addition to the base request.
type ActionRequest struct {
	*Request
	*body.Body
}

// RenderRequest is a base request without a body.
type RenderRequest struct {
	*Request
}

// NewAction builds an action request over src. A form-url-encoded payload is
// consumed here and merged into the parameters; the body then refuses both
// stream and reader access.
func NewAction(src io.Reader, contentType string, length int64, opts ...Option) (*ActionRequest, error) {
	r := newRequest(opts)
	b := body.New(src, contentType, body.WithContentLength(length))

	if b.IsForm() && src != nil {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, domain.NewIOError("reading form body", err)
		}
		form, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, domain.NewInvalidArgument(fmt.Sprintf("malformed form body: %v", err))
		}
		mergeParams(r.params, form)
	}
	return &ActionRequest{Request: r, Body: b}, nil
}

// NewRender builds a render request.
func NewRender(opts ...Option) *RenderRequest {
	return &RenderRequest{Request: newRequest(opts)}
}

var (
	_ ports.ActionRequest = (*ActionRequest)(nil)
	_ ports.RenderRequest = (*RenderRequest)(nil)
	_ ports.PortalContext = (*Portal)(nil)
)

func mergeParams(dst, src map[string][]string) {
	for k, v := range src {
		dst[k] = append(dst[k], v...)
	}
}
