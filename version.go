package portlet

// Version is the release of this module.
const Version = "0.1.0"

// Contract version implemented by AppContext.
const (
	MajorVersion = 1
	MinorVersion = 0
)
