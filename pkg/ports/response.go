package ports

import (
	"io"

	"github.com/aretw0/portlet/pkg/domain"
	"golang.org/x/text/language"
)

// Response accumulates the outbound data of one invocation.
type Response interface {
	// AddProperty appends value under key, keeping previous values.
	// An empty key is an invalid-argument failure.
	AddProperty(key, value string) error

	// SetProperty replaces every value under key with value.
	// An empty key is an invalid-argument failure.
	SetProperty(key, value string) error

	// EncodeURL rewrites an absolute URL or an absolute path for the
	// container, for instance by embedding the session id. Any other input
	// is an invalid-argument failure. It has no effect on the response.
	EncodeURL(path string) (string, error)
}

// ActionResponse is the response passed to processAction.
type ActionResponse interface {
	Response

	SetWindowState(state domain.WindowState) error
	SetPortletMode(mode domain.PortletMode) error

	// SendRedirect instructs the portal to redirect the client to location.
	// It fails with an invalid-state failure once the mode, the window state
	// or render parameters were set.
	SendRedirect(location string) error

	// SetRenderParameters replaces all render parameters with a copy of params.
	SetRenderParameters(params map[string][]string) error
	SetRenderParameter(key string, values ...string) error
}

// Writer is the character output of a render response.
type Writer interface {
	io.Writer
	io.StringWriter
}

// RenderResponse is the response passed to render.
type RenderResponse interface {
	Response

	ContentType() string
	// SetContentType must name one of the request's response content types.
	SetContentType(contentType string) error
	CharacterEncoding() string

	// Writer and OutputStream are mutually exclusive. Both require a content type.
	Writer() (Writer, error)
	OutputStream() (io.Writer, error)

	CreateRenderURL() URL
	CreateActionURL() URL

	// Namespace is unique per portlet window and safe to embed in markup identifiers.
	Namespace() string

	SetTitle(title string)
	Locale() language.Tag

	SetBufferSize(size int) error
	BufferSize() int
	FlushBuffer() error
	ResetBuffer() error
	IsCommitted() bool
	Reset() error
}

// URL points back to the portlet, targeting either a render or an action.
type URL interface {
	SetWindowState(state domain.WindowState) error
	SetPortletMode(mode domain.PortletMode) error
	SetParameter(name string, values ...string) error
	SetParameters(params map[string][]string) error
	// SetSecure fails with a security failure when the portal cannot honour it.
	SetSecure(secure bool) error
	String() string
}
