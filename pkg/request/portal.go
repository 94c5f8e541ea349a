package request

import (
	"maps"
	"slices"

	"github.com/aretw0/portlet/pkg/domain"
)

// Portal is a static PortalContext.
type Portal struct {
	Info       string
	Properties map[string]string
	Modes      []domain.PortletMode
	States     []domain.WindowState
}

// DefaultPortal supports the well-known modes and window states.
func DefaultPortal() *Portal {
	return &Portal{
		Info:   "portlet-go/1.0",
		Modes:  []domain.PortletMode{domain.ModeView, domain.ModeEdit, domain.ModeHelp},
		States: []domain.WindowState{domain.StateNormal, domain.StateMaximized, domain.StateMinimized},
	}
}

func (p *Portal) Property(name string) string { return p.Properties[name] }

func (p *Portal) PropertyNames() []string {
	return slices.Sorted(maps.Keys(p.Properties))
}

func (p *Portal) SupportedPortletModes() []domain.PortletMode { return slices.Clone(p.Modes) }

func (p *Portal) SupportedWindowStates() []domain.WindowState { return slices.Clone(p.States) }

func (p *Portal) PortalInfo() string { return p.Info }
