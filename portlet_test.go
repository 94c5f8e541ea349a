package portlet_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/portlet"
	"github.com/aretw0/portlet/pkg/dispatcher"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/aretw0/portlet/pkg/request"
	"github.com/aretw0/portlet/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(resp ports.RenderResponse, s string) error {
	if err := resp.SetContentType(domain.ContentTypeHTML); err != nil {
		return err
	}
	w, err := resp.Writer()
	if err != nil {
		return err
	}
	_, err = w.WriteString(s)
	return err
}

func newInvoker(t *testing.T, p ports.Portlet, opts ...portlet.InvokerOption) *portlet.Invoker {
	t.Helper()
	app := portlet.NewAppContext("app")
	cfg := portlet.NewConfig("news", app, map[string]string{portlet.TitleParameter: "News"})
	inv, err := portlet.NewInvoker(p, cfg, opts...)
	require.NoError(t, err)
	return inv
}

func TestGenericPortlet_DispatchesByMode(t *testing.T) {
	p := &portlet.GenericPortlet{
		View: func(_ ports.RenderRequest, resp ports.RenderResponse) error { return write(resp, "view") },
		Edit: func(_ ports.RenderRequest, resp ports.RenderResponse) error { return write(resp, "edit") },
		Modes: map[domain.PortletMode]portlet.RenderFunc{
			"config": func(_ ports.RenderRequest, resp ports.RenderResponse) error { return write(resp, "config") },
		},
	}
	inv := newInvoker(t, p)

	for mode, want := range map[domain.PortletMode]string{
		domain.ModeView: "view",
		domain.ModeEdit: "edit",
		"CONFIG":        "config",
	} {
		req := request.NewRender(request.WithMode(mode))
		resp := response.NewRender(req)
		require.NoError(t, inv.Render(req, resp), mode)
		assert.Equal(t, want, string(resp.Content()))
		assert.Equal(t, "News", resp.Title())
	}

	req := request.NewRender(request.WithMode(domain.ModeHelp))
	err := inv.Render(req, response.NewRender(req))
	assert.ErrorIs(t, err, domain.ErrPortlet)
	assert.Contains(t, err.Error(), "help mode not implemented")

	req = request.NewRender(request.WithMode("print"))
	err = inv.Render(req, response.NewRender(req))
	assert.Contains(t, err.Error(), "unknown portlet mode")
}

func TestGenericPortlet_MinimizedSkipsContent(t *testing.T) {
	called := false
	p := &portlet.GenericPortlet{
		View:  func(ports.RenderRequest, ports.RenderResponse) error { called = true; return nil },
		Title: func(ports.RenderRequest) string { return "Custom" },
	}
	inv := newInvoker(t, p)

	req := request.NewRender(request.WithState(domain.StateMinimized))
	resp := response.NewRender(req)
	require.NoError(t, inv.Render(req, resp))
	assert.False(t, called)
	assert.Equal(t, "Custom", resp.Title())
	assert.Empty(t, resp.Content())
}

func TestGenericPortlet_Accessors(t *testing.T) {
	var p portlet.GenericPortlet
	_, err := p.Config()
	assert.ErrorIs(t, err, domain.ErrPortlet)
	_, err = p.PortletName()
	assert.ErrorIs(t, err, domain.ErrPortlet)
	assert.ErrorIs(t, p.Init(nil), domain.ErrInvalidArgument)

	app := portlet.NewAppContext("app")
	require.NoError(t, p.Init(portlet.NewConfig("news", app, map[string]string{"b": "2", "a": "1"})))

	name, err := p.PortletName()
	require.NoError(t, err)
	assert.Equal(t, "news", name)
	ctx, err := p.PortletContext()
	require.NoError(t, err)
	assert.Equal(t, "app", ctx.PortletContextName())
	v, err := p.InitParameter("a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	names, err := p.InitParameterNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	destroyed := false
	p.OnDestroy = func() { destroyed = true }
	p.Destroy()
	assert.True(t, destroyed)
	_, err = p.Config()
	assert.Error(t, err)
}

func TestGenericPortlet_ProcessActionDefault(t *testing.T) {
	inv := newInvoker(t, &portlet.GenericPortlet{})
	req, err := request.NewAction(nil, "", -1)
	require.NoError(t, err)
	err = inv.Action(req, response.NewAction(req))
	assert.ErrorIs(t, err, domain.ErrPortlet)
}

func TestInvoker_SealsResponse(t *testing.T) {
	var kept ports.ActionResponse
	p := &portlet.GenericPortlet{
		Action: func(_ ports.ActionRequest, resp ports.ActionResponse) error {
			kept = resp
			return resp.SetPortletMode(domain.ModeEdit)
		},
	}
	inv := newInvoker(t, p)
	req, err := request.NewAction(strings.NewReader("x"), "text/plain", 1)
	require.NoError(t, err)
	resp := response.NewAction(req)
	require.NoError(t, inv.Action(req, resp))

	assert.Equal(t, domain.ModeEdit, resp.PortletMode())
	assert.True(t, resp.Sealed())
	assert.ErrorIs(t, kept.SetPortletMode(domain.ModeView), domain.ErrInvalidState)
}

func TestInvoker_RecoversPanics(t *testing.T) {
	p := &portlet.GenericPortlet{
		View: func(ports.RenderRequest, ports.RenderResponse) error { panic("boom") },
	}
	inv := newInvoker(t, p)
	req := request.NewRender()
	err := inv.Render(req, response.NewRender(req))
	require.ErrorIs(t, err, domain.ErrPortlet)
	assert.Contains(t, err.Error(), "boom")
}

func TestInvoker_ModeAndStateGuards(t *testing.T) {
	inv := newInvoker(t, &portlet.GenericPortlet{
		View: func(ports.RenderRequest, ports.RenderResponse) error { return nil },
	},
		portlet.WithSupportedModes(domain.ModeView),
		portlet.WithSupportedStates(domain.StateNormal, domain.StateMinimized),
	)

	req := request.NewRender(request.WithMode(domain.ModeEdit))
	err := inv.Render(req, response.NewRender(req))
	var perr *domain.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.KindPortletMode, perr.Kind)
	assert.Equal(t, domain.ModeEdit, perr.Mode)

	req = request.NewRender(request.WithState(domain.StateMaximized))
	err = inv.Render(req, response.NewRender(req))
	assert.ErrorIs(t, err, domain.ErrWindowState)

	req = request.NewRender()
	assert.NoError(t, inv.Render(req, response.NewRender(req)))
}

func TestInvoker_Hooks(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(10 * time.Millisecond)
		return now
	}
	var events []*domain.InvocationEvent
	record := func(_ context.Context, e *domain.InvocationEvent) { events = append(events, e) }

	inv := newInvoker(t, &portlet.GenericPortlet{
		View: func(ports.RenderRequest, ports.RenderResponse) error { return nil },
	},
		portlet.WithClock(clock),
		portlet.WithWindowID("w1"),
		portlet.WithHooks(domain.LifecycleHooks{OnInvocationStart: record, OnInvocationEnd: record}),
	)

	req := request.NewRender()
	require.NoError(t, inv.Render(req, response.NewRender(req)))
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventRenderStart, events[0].Type)
	assert.Equal(t, domain.EventRenderEnd, events[1].Type)
	assert.Equal(t, "news", events[1].Portlet)
	assert.Equal(t, "w1", events[1].WindowID)
	assert.Equal(t, domain.PhaseRender, events[1].Phase)
	assert.Equal(t, 10*time.Millisecond, events[1].Duration)
}

func TestInvoker_Unavailable(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	inv := newInvoker(t, &portlet.GenericPortlet{
		View: func(ports.RenderRequest, ports.RenderResponse) error {
			calls++
			if calls == 1 {
				return domain.NewUnavailable("backend down", 30)
			}
			return nil
		},
	}, portlet.WithClock(func() time.Time { return now }))

	render := func() error {
		req := request.NewRender()
		return inv.Render(req, response.NewRender(req))
	}

	require.ErrorIs(t, render(), domain.ErrUnavailable)
	err := render()
	var perr *domain.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 30, perr.UnavailableSeconds())
	assert.Equal(t, 1, calls)

	now = now.Add(31 * time.Second)
	assert.NoError(t, render())
	assert.Equal(t, 2, calls)
}

func TestInvoker_PermanentlyUnavailable(t *testing.T) {
	inv := newInvoker(t, &portlet.GenericPortlet{
		View: func(ports.RenderRequest, ports.RenderResponse) error {
			return domain.NewUnavailable("gone", 0)
		},
	})
	req := request.NewRender()
	require.Error(t, inv.Render(req, response.NewRender(req)))

	req = request.NewRender()
	err := inv.Render(req, response.NewRender(req))
	var perr *domain.Error
	require.True(t, errors.As(err, &perr))
	assert.True(t, perr.IsPermanent())
}

func TestInvoker_InitAndDestroy(t *testing.T) {
	app := portlet.NewAppContext("app")
	_, err := portlet.NewInvoker(&portlet.GenericPortlet{
		OnInit: func(ports.Config) error { return domain.NewUnavailable("warming up", 5) },
	}, portlet.NewConfig("news", app, nil))
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = portlet.NewInvoker(nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	destroyed := 0
	inv := newInvoker(t, &portlet.GenericPortlet{OnDestroy: func() { destroyed++ }})
	inv.Destroy()
	inv.Destroy()
	assert.Equal(t, 1, destroyed)

	req := request.NewRender()
	assert.ErrorIs(t, inv.Render(req, response.NewRender(req)), domain.ErrInvalidState)
}

func TestAppContext(t *testing.T) {
	reg := dispatcher.New()
	reg.HandleResource("/header", func(_ ports.RenderRequest, resp ports.RenderResponse) error {
		w, err := resp.Writer()
		if err != nil {
			return err
		}
		_, err = w.WriteString("<h1>hi</h1>")
		return err
	})
	app := portlet.NewAppContext("app",
		portlet.WithRegistry(reg),
		portlet.WithServerInfo("test/1"),
		portlet.WithContextParameters(map[string]string{"env": "test"}),
	)

	assert.Equal(t, "test/1", app.ServerInfo())
	assert.Equal(t, portlet.MajorVersion, app.MajorVersion())
	assert.Equal(t, "test", app.InitParameter("env"))
	assert.Equal(t, "image/png", app.MimeType("logo.png"))
	assert.Empty(t, app.MimeType("README"))

	require.NoError(t, app.SetAttribute("b", 2))
	require.NoError(t, app.SetAttribute("a", 1))
	assert.Equal(t, []string{"a", "b"}, app.AttributeNames())
	require.NoError(t, app.SetAttribute("a", nil))
	assert.Nil(t, app.Attribute("a"))
	assert.ErrorIs(t, app.SetAttribute("", 1), domain.ErrInvalidArgument)

	_, err := app.Resources().Open("missing.txt")
	assert.Error(t, err)

	_, _, err = app.RequestDispatcher("header")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, ok, err := app.RequestDispatcher("/missing")
	require.NoError(t, err)
	assert.False(t, ok)

	d, ok, err := app.RequestDispatcher("/header")
	require.NoError(t, err)
	require.True(t, ok)

	req := request.NewRender()
	resp := response.NewRender(req)
	require.NoError(t, resp.SetContentType(domain.ContentTypeHTML))
	require.NoError(t, d.Include(req, resp))
	require.NoError(t, resp.Close())
	assert.Equal(t, "<h1>hi</h1>", string(resp.Content()))
}
