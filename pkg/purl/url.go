// Package purl implements portlet URLs: links back to a portlet window that
// target either its render or its action phase.
package purl

import (
	"maps"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/portlet/pkg/domain"
)

// Reserved query keys. Parameter names must not use them.
const (
	ModeKey   = "_mode"
	StateKey  = "_state"
	ActionKey = "_action"
)

// URL is a render or action URL. It is safe for concurrent use.
type URL struct {
	mu sync.Mutex

	base   string
	action bool

	mode   domain.PortletMode
	state  domain.WindowState
	params map[string][]string
	secure bool

	allowMode       func(domain.PortletMode) bool
	allowState      func(domain.WindowState) bool
	secureSupported bool
	encode          func(string) string
}

// Option configures a URL.
type Option func(*URL)

// WithModeCheck restricts the modes the URL may target.
func WithModeCheck(allow func(domain.PortletMode) bool) Option {
	return func(u *URL) { u.allowMode = allow }
}

// WithStateCheck restricts the window states the URL may target.
func WithStateCheck(allow func(domain.WindowState) bool) Option {
	return func(u *URL) { u.allowState = allow }
}

// WithSecureSupport declares whether the portal can serve secure URLs.
func WithSecureSupport(supported bool) Option {
	return func(u *URL) { u.secureSupported = supported }
}

// WithEncoder post-processes the rendered URL, typically with Response.EncodeURL.
func WithEncoder(encode func(string) string) Option {
	return func(u *URL) { u.encode = encode }
}

// NewRender creates a URL targeting the render phase.
func NewRender(base string, opts ...Option) *URL {
	return newURL(base, false, opts)
}

// NewAction creates a URL targeting the action phase.
func NewAction(base string, opts ...Option) *URL {
	return newURL(base, true, opts)
}

func newURL(base string, action bool, opts []Option) *URL {
	u := &URL{
		base:   base,
		action: action,
		params: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// IsAction reports whether the URL targets the action phase.
func (u *URL) IsAction() bool { return u.action }

func (u *URL) SetWindowState(state domain.WindowState) error {
	if state == "" {
		return domain.NewInvalidArgument("window state must not be empty")
	}
	if u.allowState != nil && !u.allowState(state) {
		return domain.NewStateError("window state not allowed", state)
	}
	u.mu.Lock()
	u.state = state
	u.mu.Unlock()
	return nil
}

func (u *URL) SetPortletMode(mode domain.PortletMode) error {
	if mode == "" {
		return domain.NewInvalidArgument("portlet mode must not be empty")
	}
	if u.allowMode != nil && !u.allowMode(mode) {
		return domain.NewModeError("portlet mode not allowed", mode)
	}
	u.mu.Lock()
	u.mode = mode
	u.mu.Unlock()
	return nil
}

// SetParameter replaces the values of name. At least one value is required.
func (u *URL) SetParameter(name string, values ...string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if len(values) == 0 {
		return domain.NewInvalidArgument("parameter " + name + " needs at least one value")
	}
	u.mu.Lock()
	u.params[name] = slices.Clone(values)
	u.mu.Unlock()
	return nil
}

// SetParameters replaces every parameter with a copy of params.
func (u *URL) SetParameters(params map[string][]string) error {
	next := make(map[string][]string, len(params))
	for name, values := range params {
		if err := checkName(name); err != nil {
			return err
		}
		next[name] = slices.Clone(values)
	}
	u.mu.Lock()
	u.params = next
	u.mu.Unlock()
	return nil
}

func (u *URL) SetSecure(secure bool) error {
	if secure && !u.secureSupported {
		return domain.NewSecurityError("secure urls are not supported by the portal")
	}
	u.mu.Lock()
	u.secure = secure
	u.mu.Unlock()
	return nil
}

// String renders base?_mode=..&_state=..&_action=1&params with parameter
// names sorted. Values keep their order.
func (u *URL) String() string {
	u.mu.Lock()
	base := u.base
	if u.secure {
		if rest, ok := strings.CutPrefix(base, "http://"); ok {
			base = "https://" + rest
		}
	}

	var q []string
	if u.mode != "" {
		q = append(q, ModeKey+"="+url.QueryEscape(u.mode.String()))
	}
	if u.state != "" {
		q = append(q, StateKey+"="+url.QueryEscape(u.state.String()))
	}
	if u.action {
		q = append(q, ActionKey+"=1")
	}
	for _, name := range slices.Sorted(maps.Keys(u.params)) {
		for _, v := range u.params[name] {
			q = append(q, url.QueryEscape(name)+"="+url.QueryEscape(v))
		}
	}
	encode := u.encode
	u.mu.Unlock()

	s := base
	if len(q) > 0 {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		s += sep + strings.Join(q, "&")
	}
	if encode != nil {
		s = encode(s)
	}
	return s
}

func checkName(name string) error {
	if name == "" {
		return domain.NewInvalidArgument("parameter name must not be empty")
	}
	switch name {
	case ModeKey, StateKey, ActionKey:
		return domain.NewInvalidArgument("parameter name " + name + " is reserved")
	}
	return nil
}
