package domain

// Request attribute and authentication identifiers.
const (
	// UserInfo is the request attribute holding the user information map.
	// Attributes not supported by the runtime are absent from the map.
	UserInfo = "javax.portlet.userinfo"

	BasicAuth      = "BASIC"
	FormAuth       = "FORM"
	ClientCertAuth = "CLIENT_CERT"
	DigestAuth     = "DIGEST"
)

// ExpirationCache is the render response property that overrides the
// configured expiration cache, in seconds.
const ExpirationCache = "portlet.expiration-cache"

// Scope selects the visibility of a session attribute.
type Scope int

const (
	// ApplicationScope attributes are shared by every portlet of the application.
	ApplicationScope Scope = 0x01
	// PortletScope attributes are private to one portlet window.
	PortletScope Scope = 0x02
)

func (s Scope) String() string {
	switch s {
	case ApplicationScope:
		return "application"
	case PortletScope:
		return "portlet"
	default:
		return "unknown"
	}
}

// PortletScopeNamespace prefixes session attribute names stored in portlet scope.
const PortletScopeNamespace = "javax.portlet.p."

// Standard content types relevant to body access.
const (
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
	ContentTypeHTML           = "text/html"
)
