package ports

import (
	"io/fs"
)

// Portlet is the component a container invokes.
type Portlet interface {
	Init(cfg Config) error
	ProcessAction(req ActionRequest, resp ActionResponse) error
	Render(req RenderRequest, resp RenderResponse) error
	Destroy()
}

// Config is the per-portlet configuration handed to Init.
type Config interface {
	PortletName() string
	PortletContext() Context
	// InitParameter returns "" when name is not defined.
	InitParameter(name string) string
	InitParameterNames() []string
}

// Context is the view a portlet has of its application.
type Context interface {
	ServerInfo() string
	PortletContextName() string
	MajorVersion() int
	MinorVersion() int

	// RequestDispatcher returns the dispatcher for a resource path, which must
	// begin with "/". ok is false when no resource matches.
	RequestDispatcher(path string) (d RequestDispatcher, ok bool, err error)
	NamedDispatcher(name string) (d RequestDispatcher, ok bool)

	// Resources exposes the static resources of the application.
	Resources() fs.FS
	MimeType(file string) string

	Attribute(name string) any
	AttributeNames() []string
	SetAttribute(name string, value any) error
	RemoveAttribute(name string) error

	InitParameter(name string) string
	InitParameterNames() []string

	// Log writes a message to the application log. args follow slog conventions.
	Log(msg string, args ...any)
}
