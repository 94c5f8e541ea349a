// Package body implements the one-shot, mode-selectable payload of an action request.
//
// A Body hands out either its raw byte stream or a decoding character reader,
// never both. The first accessor used latches the body into that mode; the
// character encoding can only be changed before the latch is set.
package body

import (
	"bufio"
	"io"
	"mime"
	"strings"
	"sync"

	"github.com/aretw0/portlet/pkg/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used by Reader when neither the content type nor
// SetCharacterEncoding named a charset.
const DefaultEncoding = "UTF-8"

type accessMode int

const (
	unread accessMode = iota
	streamed
	decoded
)

// Body is the payload of one action request. It is not meant to be shared
// across invocations.
type Body struct {
	mu sync.Mutex

	src         io.Reader
	contentType string
	mediaType   string
	length      int64
	encoding    string

	mode   accessMode
	reader *bufio.Reader
}

// Option configures a Body.
type Option func(*Body)

// WithContentLength records the payload length announced by the client.
func WithContentLength(n int64) Option {
	return func(b *Body) {
		if n < 0 {
			n = -1
		}
		b.length = n
	}
}

// WithCharacterEncoding sets the encoding known to the container, overriding
// the charset parameter of the content type.
func WithCharacterEncoding(enc string) Option {
	return func(b *Body) {
		b.encoding = enc
	}
}

// New wraps src, announced with contentType. A nil src behaves as an empty body.
func New(src io.Reader, contentType string, opts ...Option) *Body {
	if src == nil {
		src = strings.NewReader("")
	}
	b := &Body{
		src:         src,
		contentType: contentType,
		length:      -1,
	}

	if contentType != "" {
		mediaType, params, err := mime.ParseMediaType(contentType)
		if err != nil {
			mediaType, _, _ = strings.Cut(contentType, ";")
			mediaType = strings.ToLower(strings.TrimSpace(mediaType))
		}
		b.mediaType = mediaType
		b.encoding = params["charset"]
	}

	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsForm reports whether the payload was form-url-encoded. Such bodies are
// consumed by the container into request parameters.
func (b *Body) IsForm() bool {
	return b.mediaType == domain.ContentTypeFormURLEncoded
}

// PortletInputStream returns the raw payload.
func (b *Body) PortletInputStream() (io.Reader, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.IsForm() {
		return nil, domain.NewInvalidState("form-url-encoded body was consumed into parameters")
	}
	if b.mode == decoded {
		return nil, domain.NewInvalidState("body reader already obtained")
	}
	b.mode = streamed
	return b.src, nil
}

// Reader returns the payload decoded with the current character encoding.
// Repeated calls return the same reader.
func (b *Body) Reader() (*bufio.Reader, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.IsForm() {
		return nil, domain.NewInvalidState("form-url-encoded body was consumed into parameters")
	}
	if b.mode == streamed {
		return nil, domain.NewInvalidState("body input stream already obtained")
	}
	if b.reader != nil {
		return b.reader, nil
	}

	name := b.encoding
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := lookup(name)
	if err != nil {
		return nil, err
	}

	b.reader = bufio.NewReader(transform.NewReader(b.src, enc.NewDecoder()))
	b.mode = decoded
	return b.reader, nil
}

// SetCharacterEncoding overrides the encoding used by Reader.
func (b *Body) SetCharacterEncoding(enc string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mode != unread {
		return domain.NewInvalidState("character encoding must be set before the body is read")
	}
	if _, err := lookup(enc); err != nil {
		return err
	}
	b.encoding = enc
	return nil
}

// CharacterEncoding returns the configured encoding, or "" when unknown.
func (b *Body) CharacterEncoding() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.encoding
}

// ContentType returns the announced content type, or "".
func (b *Body) ContentType() string { return b.contentType }

// ContentLength returns the announced length, or -1.
func (b *Body) ContentLength() int64 { return b.length }

func lookup(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, domain.NewUnsupportedEncoding(name, err)
	}
	return enc, nil
}
