// Package response provides reference implementations of the action and
// render responses handed to a portlet.
//
// Responses are scoped to a single invocation. Once the host calls Seal,
// every mutating method fails with an invalid-state failure.
package response

import (
	"io"
	"sync/atomic"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/aretw0/portlet/pkg/property"
	"github.com/aretw0/portlet/pkg/urlenc"
)

// Option configures a response.
type Option func(*options)

type options struct {
	rewriters  []urlenc.Rewriter
	windowID   string
	baseURL    string
	secureURLs bool
	bufferSize int
	output     io.Writer
}

// WithRewriter adds a URL rewriter applied by EncodeURL after the session id.
func WithRewriter(rw urlenc.Rewriter) Option {
	return func(o *options) { o.rewriters = append(o.rewriters, rw) }
}

// WithWindowID names the portlet window; the render namespace derives from it.
func WithWindowID(id string) Option {
	return func(o *options) { o.windowID = id }
}

// WithBaseURL sets the base of the portlet URLs created by a render response.
func WithBaseURL(base string) Option {
	return func(o *options) { o.baseURL = base }
}

// WithSecureURLs declares that the portal can serve secure portlet URLs.
func WithSecureURLs(supported bool) Option {
	return func(o *options) { o.secureURLs = supported }
}

// WithBufferSize sets the initial render buffer size in bytes.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

func newOptions(opts []Option) options {
	o := options{
		windowID:   "portlet",
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// base holds what action and render responses share: properties and URL encoding.
type base struct {
	req       ports.Request
	props     *property.Set
	rewriters []urlenc.Rewriter
	sealed    atomic.Bool
}

func newBase(req ports.Request, o options) *base {
	return &base{
		req:       req,
		props:     property.New(),
		rewriters: o.rewriters,
	}
}

func (b *base) AddProperty(key, value string) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	return b.props.Add(key, value)
}

func (b *base) SetProperty(key, value string) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	return b.props.Set(key, value)
}

// EncodeURL validates path and embeds the id of the current session, if any.
func (b *base) EncodeURL(path string) (string, error) {
	var sessionID string
	if s := b.req.PortletSession(false); s != nil {
		sessionID = s.ID()
	}
	rewriters := append([]urlenc.Rewriter{urlenc.WithSessionID(sessionID)}, b.rewriters...)
	return urlenc.Encode(path, rewriters...)
}

// Properties exposes the accumulated properties to the host.
func (b *base) Properties() *property.Set { return b.props }

// Seal ends the invocation scope of the response.
func (b *base) Seal() { b.sealed.Store(true) }

// Close seals the response.
func (b *base) Close() error {
	b.Seal()
	return nil
}

// Sealed reports whether Seal was called.
func (b *base) Sealed() bool { return b.sealed.Load() }

func (b *base) checkOpen() error {
	if b.sealed.Load() {
		return domain.NewInvalidState("response used after its invocation completed")
	}
	return nil
}
