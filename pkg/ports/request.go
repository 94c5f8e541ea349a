package ports

import (
	"bufio"
	"context"
	"io"

	"github.com/aretw0/portlet/pkg/domain"
	"golang.org/x/text/language"
)

// Request exposes the inbound data of one invocation.
// The container creates one per processAction/render call; portlets must not
// retain it beyond that call.
type Request interface {
	// Context is the invocation context. It is never nil.
	Context() context.Context

	PortletMode() domain.PortletMode
	WindowState() domain.WindowState
	IsPortletModeAllowed(mode domain.PortletMode) bool
	IsWindowStateAllowed(state domain.WindowState) bool

	// Preferences returns the preferences of the portlet window.
	Preferences() Preferences

	// PortletSession returns the current session. When none exists it is
	// created if create is true, otherwise nil is returned.
	PortletSession(create bool) Session

	// Property returns the first value of a portal/container property, or "".
	Property(name string) string
	Properties(name string) []string
	PropertyNames() []string

	PortalContext() PortalContext

	// AuthType is one of the domain auth identifiers, or "" when unauthenticated.
	AuthType() string
	ContextPath() string
	RemoteUser() string
	IsUserInRole(role string) bool

	// Attribute returns nil when name is not bound.
	Attribute(name string) any
	AttributeNames() []string
	// SetAttribute binds value under name; a nil value removes the binding.
	SetAttribute(name string, value any) error
	RemoveAttribute(name string) error

	// Parameter returns the first value of a parameter, or "".
	Parameter(name string) string
	ParameterNames() []string
	ParameterValues(name string) []string
	// ParameterMap returns a copy of all parameters.
	ParameterMap() map[string][]string

	IsSecure() bool
	RequestedSessionID() string
	IsRequestedSessionIDValid() bool

	// ResponseContentType is the preferred content type of the response.
	ResponseContentType() string
	ResponseContentTypes() []string

	Locale() language.Tag
	Locales() []language.Tag

	Scheme() string
	ServerName() string
	ServerPort() int
}

// Body gives access to the payload of an action request.
// Byte and character access are mutually exclusive for the lifetime of the request.
type Body interface {
	// PortletInputStream returns the raw body. It fails with an invalid-state
	// failure once Reader was used or when the body is form-url-encoded.
	PortletInputStream() (io.Reader, error)

	// Reader returns the body decoded with the current character encoding.
	// It fails with an invalid-state failure once PortletInputStream was used
	// or when the body is form-url-encoded, and with an unsupported-encoding
	// failure when the encoding cannot decode the body.
	Reader() (*bufio.Reader, error)

	// SetCharacterEncoding overrides the body encoding. It must be called
	// before the body is accessed.
	SetCharacterEncoding(enc string) error

	// CharacterEncoding returns "" when unknown.
	CharacterEncoding() string
	// ContentType returns "" when unknown.
	ContentType() string
	// ContentLength returns -1 when unknown.
	ContentLength() int64
}

// ActionRequest is the request passed to processAction. It carries a body.
type ActionRequest interface {
	Request
	Body
}

// RenderRequest is the request passed to render. It has no body; only the
// state left by a preceding action is visible.
type RenderRequest interface {
	Request
}

// PortalContext describes the portal hosting the portlet.
type PortalContext interface {
	Property(name string) string
	PropertyNames() []string
	SupportedPortletModes() []domain.PortletMode
	SupportedWindowStates() []domain.WindowState
	PortalInfo() string
}
