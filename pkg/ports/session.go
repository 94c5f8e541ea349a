package ports

import (
	"time"

	"github.com/aretw0/portlet/pkg/domain"
)

// Session identifies a user across invocations and stores attributes in
// application or portlet scope. After Invalidate every method returning an
// error fails with an invalid-state failure.
type Session interface {
	ID() string
	CreationTime() time.Time
	LastAccessedTime() time.Time
	MaxInactiveInterval() time.Duration
	SetMaxInactiveInterval(d time.Duration)
	IsNew() bool

	Attribute(name string, scope domain.Scope) (any, error)
	AttributeNames(scope domain.Scope) ([]string, error)
	SetAttribute(name string, value any, scope domain.Scope) error
	RemoveAttribute(name string, scope domain.Scope) error

	Invalidate() error
	PortletContext() Context
}
