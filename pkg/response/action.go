package response

import (
	"slices"
	"sync"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/aretw0/portlet/pkg/urlenc"
)

// ActionResponse implements ports.ActionResponse.
type ActionResponse struct {
	*base

	mu        sync.Mutex
	mode      domain.PortletMode
	state     domain.WindowState
	params    map[string][]string
	paramsSet bool
	redirect  string
}

// NewAction creates the response paired with req.
func NewAction(req ports.Request, opts ...Option) *ActionResponse {
	return &ActionResponse{
		base:   newBase(req, newOptions(opts)),
		params: make(map[string][]string),
	}
}

func (r *ActionResponse) SetWindowState(state domain.WindowState) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if !r.req.IsWindowStateAllowed(state) {
		return domain.NewStateError("window state not allowed", state)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.redirect != "" {
		return domain.NewInvalidState("window state set after redirect")
	}
	r.state = state
	return nil
}

func (r *ActionResponse) SetPortletMode(mode domain.PortletMode) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if !r.req.IsPortletModeAllowed(mode) {
		return domain.NewModeError("portlet mode not allowed", mode)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.redirect != "" {
		return domain.NewInvalidState("portlet mode set after redirect")
	}
	r.mode = mode
	return nil
}

func (r *ActionResponse) SendRedirect(location string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if err := urlenc.Validate(location); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mode != "" || r.state != "" || r.paramsSet {
		return domain.NewInvalidState("redirect after portlet mode, window state or render parameters were set")
	}
	r.redirect = location
	return nil
}

func (r *ActionResponse) SetRenderParameters(params map[string][]string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	next := make(map[string][]string, len(params))
	for k, v := range params {
		if k == "" {
			return domain.NewInvalidArgument("render parameter name must not be empty")
		}
		next[k] = slices.Clone(v)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.redirect != "" {
		return domain.NewInvalidState("render parameters set after redirect")
	}
	r.params = next
	r.paramsSet = true
	return nil
}

func (r *ActionResponse) SetRenderParameter(key string, values ...string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if key == "" {
		return domain.NewInvalidArgument("render parameter name must not be empty")
	}
	if len(values) == 0 {
		return domain.NewInvalidArgument("render parameter " + key + " needs at least one value")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.redirect != "" {
		return domain.NewInvalidState("render parameters set after redirect")
	}
	r.params[key] = slices.Clone(values)
	r.paramsSet = true
	return nil
}

// PortletMode returns the mode requested for the next render, or "".
func (r *ActionResponse) PortletMode() domain.PortletMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// WindowState returns the window state requested for the next render, or "".
func (r *ActionResponse) WindowState() domain.WindowState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// RenderParameters returns a copy of the parameters for the next render.
func (r *ActionResponse) RenderParameters() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := make(map[string][]string, len(r.params))
	for k, v := range r.params {
		m[k] = slices.Clone(v)
	}
	return m
}

// Redirect returns the redirect location, or "".
func (r *ActionResponse) Redirect() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirect
}

var _ ports.ActionResponse = (*ActionResponse)(nil)
