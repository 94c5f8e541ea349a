package domain

import "strings"

// PortletMode indicates the function a portlet is performing.
// Mode names are case-insensitive and stored lower-cased.
type PortletMode string

// Well-known portlet modes.
const (
	ModeView PortletMode = "view"
	ModeEdit PortletMode = "edit"
	ModeHelp PortletMode = "help"
)

// NewPortletMode creates a mode from a custom name.
// The empty name is rejected with an invalid-argument failure.
func NewPortletMode(name string) (PortletMode, error) {
	if name == "" {
		return "", NewInvalidArgument("portlet mode name can not be empty")
	}
	return PortletMode(strings.ToLower(name)), nil
}

// String returns the lower-cased mode name.
func (m PortletMode) String() string { return string(m) }

// Equal reports whether both modes carry the same name.
func (m PortletMode) Equal(other PortletMode) bool {
	return strings.EqualFold(string(m), string(other))
}

// WindowState indicates the amount of page space assigned to a portlet.
type WindowState string

// Well-known window states.
const (
	StateNormal    WindowState = "normal"
	StateMaximized WindowState = "maximized"
	StateMinimized WindowState = "minimized"
)

// NewWindowState creates a window state from a custom name.
// The empty name is rejected with an invalid-argument failure.
func NewWindowState(name string) (WindowState, error) {
	if name == "" {
		return "", NewInvalidArgument("window state name can not be empty")
	}
	return WindowState(strings.ToLower(name)), nil
}

func (s WindowState) String() string { return string(s) }

// Equal reports whether both states carry the same name.
func (s WindowState) Equal(other WindowState) bool {
	return strings.EqualFold(string(s), string(other))
}
