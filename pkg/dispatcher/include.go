package dispatcher

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
)

type dispatcher struct {
	reg     *Registry
	path    string
	name    string
	query   url.Values
	handler http.Handler
}

// Include runs the resource against resp. Headers set by the resource become
// response properties; status codes are dropped.
func (d *dispatcher) Include(req ports.RenderRequest, resp ports.RenderResponse) error {
	if req == nil || resp == nil {
		return domain.NewInvalidArgument("include needs a request and a response")
	}
	if _, isAction := req.(ports.Body); isAction {
		return domain.NewInvalidState("include is only valid during render")
	}

	start := time.Now()
	err := d.include(req, resp)

	target := d.path
	if d.name != "" {
		target = d.name
	}
	if err != nil {
		d.reg.logger.Warn("include failed", "path", target, "err", err)
	} else {
		d.reg.logger.Debug("include dispatched", "path", target)
	}
	if d.reg.hooks.OnInclude != nil {
		d.reg.hooks.OnInclude(req.Context(), &domain.IncludeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventInclude},
			Path:      target,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return err
}

func (d *dispatcher) include(req ports.RenderRequest, resp ports.RenderResponse) (err error) {
	params := req.ParameterMap()
	for k, v := range d.query {
		params[k] = append(slices.Clone(v), params[k]...)
	}

	target := &url.URL{Path: d.path, RawQuery: url.Values(params).Encode()}
	state := &includeState{
		req:  &includedRequest{RenderRequest: req, ctx: req.Context(), params: params},
		resp: resp,
	}
	httpReq, rerr := http.NewRequestWithContext(context.WithValue(req.Context(), stateKey{}, state), http.MethodGet, target.String(), nil)
	if rerr != nil {
		return domain.NewPortletError("building include request for "+d.path, rerr)
	}
	w := &includeWriter{resp: resp, header: make(http.Header), logger: d.reg.logger}

	defer func() {
		if p := recover(); p != nil {
			cause, ok := p.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", p)
			}
			err = domain.NewPortletError("included resource "+d.path+" panicked", cause)
		}
	}()

	d.handler.ServeHTTP(w, httpReq)
	w.commitHeaders()

	cause := state.err
	if cause == nil {
		cause = w.err
	}
	return classify(d.path, cause)
}

// classify lets plain I/O failures through and wraps everything else.
func classify(path string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsIOError(err) {
		return err
	}
	return domain.NewPortletError("included resource "+path+" failed", err)
}

type stateKey struct{}

type includeState struct {
	req  *includedRequest
	resp ports.RenderResponse
	err  error
}

// ResourceFunc is a resource that works directly on the portlet request and
// response. It can only be served through a dispatcher include.
type ResourceFunc func(req ports.RenderRequest, resp ports.RenderResponse) error

func (f ResourceFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state, ok := r.Context().Value(stateKey{}).(*includeState)
	if !ok {
		http.Error(w, "portlet resource served outside an include", http.StatusInternalServerError)
		return
	}
	// r.Context() carries the chi route context of the match.
	req := *state.req
	req.ctx = r.Context()
	state.err = f(&req, includedResponse{state.resp})
}

// includedResponse exposes only the portlet view of the including response,
// so host methods such as SetStatus or Close stay out of reach.
type includedResponse struct {
	ports.RenderResponse
}

// RenderRequestFrom returns the including portlet request seen by a plain
// http.Handler resource.
func RenderRequestFrom(ctx context.Context) (ports.RenderRequest, bool) {
	state, ok := ctx.Value(stateKey{}).(*includeState)
	if !ok {
		return nil, false
	}
	return state.req, true
}

// includedRequest overlays the merged dispatch parameters.
type includedRequest struct {
	ports.RenderRequest
	ctx    context.Context
	params map[string][]string
}

func (r *includedRequest) Context() context.Context { return r.ctx }

func (r *includedRequest) Parameter(name string) string {
	if v := r.params[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (r *includedRequest) ParameterNames() []string {
	return slices.Sorted(maps.Keys(r.params))
}

func (r *includedRequest) ParameterValues(name string) []string {
	return slices.Clone(r.params[name])
}

func (r *includedRequest) ParameterMap() map[string][]string {
	m := make(map[string][]string, len(r.params))
	for k, v := range r.params {
		m[k] = slices.Clone(v)
	}
	return m
}
