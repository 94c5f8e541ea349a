package portlet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/portlet/internal/logging"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
)

// Invoker drives the lifecycle of one portlet: Init on construction,
// processAction and render calls, then Destroy.
type Invoker struct {
	portlet  ports.Portlet
	name     string
	windowID string
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time

	modes  []domain.PortletMode
	states []domain.WindowState

	mu               sync.Mutex
	destroyed        bool
	unavailable      bool
	unavailableUntil time.Time // zero while permanent
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithHooks registers lifecycle hooks. Repeated calls merge.
func WithHooks(h domain.LifecycleHooks) InvokerOption {
	return func(i *Invoker) { i.hooks = i.hooks.Merge(h) }
}

func WithLogger(l *slog.Logger) InvokerOption {
	return func(i *Invoker) { i.logger = l }
}

// WithWindowID names the portlet window reported in events.
func WithWindowID(id string) InvokerOption {
	return func(i *Invoker) { i.windowID = id }
}

func WithClock(now func() time.Time) InvokerOption {
	return func(i *Invoker) { i.now = now }
}

// WithSupportedModes restricts the modes the portlet accepts.
// By default every mode is accepted.
func WithSupportedModes(modes ...domain.PortletMode) InvokerOption {
	return func(i *Invoker) { i.modes = modes }
}

// WithSupportedStates restricts the window states the portlet accepts.
func WithSupportedStates(states ...domain.WindowState) InvokerOption {
	return func(i *Invoker) { i.states = states }
}

// NewInvoker initializes p with cfg. An Unavailable failure from Init is
// returned as is; the portlet is not kept.
func NewInvoker(p ports.Portlet, cfg ports.Config, opts ...InvokerOption) (*Invoker, error) {
	if p == nil || cfg == nil {
		return nil, domain.NewInvalidArgument("portlet and config must not be nil")
	}
	i := &Invoker{
		portlet: p,
		name:    cfg.PortletName(),
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if err := i.guard(func() error { return p.Init(cfg) }); err != nil {
		return nil, err
	}
	i.logger.Debug("portlet initialized", "portlet", i.name)
	return i, nil
}

// Name returns the portlet name.
func (i *Invoker) Name() string { return i.name }

// Action runs processAction. A closable response is closed afterwards.
func (i *Invoker) Action(req ports.ActionRequest, resp ports.ActionResponse) error {
	return i.invoke(req, domain.PhaseAction, resp, func() error {
		return i.portlet.ProcessAction(req, resp)
	})
}

// Render runs render. A closable response is flushed and closed afterwards.
func (i *Invoker) Render(req ports.RenderRequest, resp ports.RenderResponse) error {
	return i.invoke(req, domain.PhaseRender, resp, func() error {
		return i.portlet.Render(req, resp)
	})
}

// Destroy takes the portlet out of service. Later calls fail with an
// invalid-state failure.
func (i *Invoker) Destroy() {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return
	}
	i.destroyed = true
	i.mu.Unlock()

	_ = i.guard(func() error {
		i.portlet.Destroy()
		return nil
	})
	i.logger.Debug("portlet destroyed", "portlet", i.name)
}

func (i *Invoker) invoke(req ports.Request, phase domain.Phase, resp any, call func() error) error {
	if err := i.available(); err != nil {
		return err
	}
	if err := i.admit(req); err != nil {
		return err
	}

	ctx := req.Context()
	start := i.now()
	i.emit(ctx, i.hooks.OnInvocationStart, i.event(req, phase, startType(phase), start))

	err := i.guard(call)
	if c, ok := resp.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	i.track(err)

	end := i.event(req, phase, endType(phase), i.now())
	end.Duration = end.Timestamp.Sub(start)
	end.Err = err
	i.emit(ctx, i.hooks.OnInvocationEnd, end)

	if err != nil {
		i.logger.Warn("portlet invocation failed", "portlet", i.name, "phase", phase, "err", err)
	}
	return err
}

func (i *Invoker) available() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return domain.NewInvalidState("portlet " + i.name + " is destroyed")
	}
	if !i.unavailable {
		return nil
	}
	if i.unavailableUntil.IsZero() {
		return domain.NewUnavailable("portlet "+i.name+" is permanently unavailable", 0)
	}
	left := i.unavailableUntil.Sub(i.now())
	if left <= 0 {
		i.unavailable = false
		return nil
	}
	secs := int(left.Round(time.Second) / time.Second)
	return domain.NewUnavailable("portlet "+i.name+" is unavailable", max(secs, 1))
}

func (i *Invoker) admit(req ports.Request) error {
	mode, state := req.PortletMode(), req.WindowState()
	if len(i.modes) > 0 && !slices.ContainsFunc(i.modes, mode.Equal) {
		return domain.NewModeError("portlet "+i.name+" does not support mode "+mode.String(), mode)
	}
	if len(i.states) > 0 && !slices.ContainsFunc(i.states, state.Equal) {
		return domain.NewStateError("portlet "+i.name+" does not support window state "+state.String(), state)
	}
	return nil
}

func (i *Invoker) track(err error) {
	var perr *domain.Error
	if !errors.As(err, &perr) || perr.Kind != domain.KindUnavailable {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.unavailable = true
	if perr.IsPermanent() {
		i.unavailableUntil = time.Time{}
		return
	}
	i.unavailableUntil = i.now().Add(time.Duration(perr.UnavailableSeconds()) * time.Second)
}

// guard turns a panic in portlet code into a portlet failure.
func (i *Invoker) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("portlet panicked", "portlet", i.name, "panic", r)
			err = domain.NewPortletError(fmt.Sprintf("portlet %s panicked: %v", i.name, r), nil)
		}
	}()
	return fn()
}

func (i *Invoker) event(req ports.Request, phase domain.Phase, typ domain.EventType, at time.Time) *domain.InvocationEvent {
	return &domain.InvocationEvent{
		EventBase: domain.EventBase{Timestamp: at, Type: typ},
		Portlet:   i.name,
		WindowID:  i.windowID,
		Phase:     phase,
		Mode:      req.PortletMode(),
		State:     req.WindowState(),
	}
}

func (i *Invoker) emit(ctx context.Context, hook func(context.Context, *domain.InvocationEvent), e *domain.InvocationEvent) {
	if hook != nil {
		hook(ctx, e)
	}
}

func startType(p domain.Phase) domain.EventType {
	if p == domain.PhaseAction {
		return domain.EventActionStart
	}
	return domain.EventRenderStart
}

func endType(p domain.Phase) domain.EventType {
	if p == domain.PhaseAction {
		return domain.EventActionEnd
	}
	return domain.EventRenderEnd
}
