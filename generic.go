package portlet

import (
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
)

// TitleParameter is the init parameter GenericPortlet reads its title from.
const TitleParameter = "javax.portlet.title"

// RenderFunc handles one portlet mode.
type RenderFunc func(req ports.RenderRequest, resp ports.RenderResponse) error

// ActionFunc handles processAction.
type ActionFunc func(req ports.ActionRequest, resp ports.ActionResponse) error

// GenericPortlet implements ports.Portlet by dispatching render to the
// handler of the current portlet mode. Nil handlers fail with a portlet
// failure when their mode is requested.
type GenericPortlet struct {
	Action ActionFunc
	View   RenderFunc
	Edit   RenderFunc
	Help   RenderFunc

	// Modes handles custom portlet modes by name.
	Modes map[domain.PortletMode]RenderFunc

	// Title overrides the title init parameter.
	Title func(req ports.RenderRequest) string

	OnInit    func(cfg ports.Config) error
	OnDestroy func()

	config ports.Config
}

// Init stores cfg, then runs OnInit.
func (p *GenericPortlet) Init(cfg ports.Config) error {
	if cfg == nil {
		return domain.NewInvalidArgument("portlet config must not be nil")
	}
	p.config = cfg
	if p.OnInit != nil {
		return p.OnInit(cfg)
	}
	return nil
}

// Destroy runs OnDestroy and forgets the config.
func (p *GenericPortlet) Destroy() {
	if p.OnDestroy != nil {
		p.OnDestroy()
	}
	p.config = nil
}

func (p *GenericPortlet) uninitialized() error {
	return domain.NewPortletError("portlet is not initialized", nil)
}

func (p *GenericPortlet) Config() (ports.Config, error) {
	if p.config == nil {
		return nil, p.uninitialized()
	}
	return p.config, nil
}

func (p *GenericPortlet) PortletName() (string, error) {
	if p.config == nil {
		return "", p.uninitialized()
	}
	return p.config.PortletName(), nil
}

func (p *GenericPortlet) PortletContext() (ports.Context, error) {
	if p.config == nil {
		return nil, p.uninitialized()
	}
	return p.config.PortletContext(), nil
}

func (p *GenericPortlet) InitParameter(name string) (string, error) {
	if p.config == nil {
		return "", p.uninitialized()
	}
	return p.config.InitParameter(name), nil
}

func (p *GenericPortlet) InitParameterNames() ([]string, error) {
	if p.config == nil {
		return nil, p.uninitialized()
	}
	return p.config.InitParameterNames(), nil
}

func (p *GenericPortlet) ProcessAction(req ports.ActionRequest, resp ports.ActionResponse) error {
	if p.Action == nil {
		return domain.NewPortletError("processAction method not implemented", nil)
	}
	return p.Action(req, resp)
}

// Render sets the title and, unless the window is minimized, dispatches by mode.
func (p *GenericPortlet) Render(req ports.RenderRequest, resp ports.RenderResponse) error {
	resp.SetTitle(p.title(req))
	if req.WindowState().Equal(domain.StateMinimized) {
		return nil
	}
	return p.dispatch(req, resp)
}

func (p *GenericPortlet) title(req ports.RenderRequest) string {
	if p.Title != nil {
		return p.Title(req)
	}
	if p.config == nil {
		return ""
	}
	return p.config.InitParameter(TitleParameter)
}

func (p *GenericPortlet) dispatch(req ports.RenderRequest, resp ports.RenderResponse) error {
	mode := req.PortletMode()
	var handler RenderFunc
	switch {
	case mode.Equal(domain.ModeView):
		handler = p.View
	case mode.Equal(domain.ModeEdit):
		handler = p.Edit
	case mode.Equal(domain.ModeHelp):
		handler = p.Help
	default:
		h, ok := p.custom(mode)
		if !ok {
			return domain.NewPortletError("unknown portlet mode: "+mode.String(), nil)
		}
		handler = h
	}
	if handler == nil {
		return domain.NewPortletError(mode.String()+" mode not implemented", nil)
	}
	return handler(req, resp)
}

func (p *GenericPortlet) custom(mode domain.PortletMode) (RenderFunc, bool) {
	for m, h := range p.Modes {
		if m.Equal(mode) {
			return h, true
		}
	}
	return nil, false
}

var _ ports.Portlet = (*GenericPortlet)(nil)
