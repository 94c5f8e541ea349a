package response

import (
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/aretw0/portlet/pkg/purl"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
)

const (
	// DefaultBufferSize is the render buffer size used unless WithBufferSize is given.
	DefaultBufferSize = 8 << 10
	// DefaultCharacterEncoding applies when the content type names no charset.
	DefaultCharacterEncoding = "UTF-8"
)

type outputAccess int

const (
	noAccess outputAccess = iota
	writerAccess
	streamAccess
)

// WithOutput sends committed content to w. Without it the response keeps the
// committed content itself, see Content.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// RenderResponse implements ports.RenderResponse on a pooled buffer.
// Content is buffered until the buffer fills or FlushBuffer is called; from
// then on the response is committed and can no longer be reset.
type RenderResponse struct {
	*base

	mu          sync.Mutex
	contentType string
	encoding    string
	title       string
	namespace   string
	baseURL     string
	secureURLs  bool
	status      int

	buf        *bytebufferpool.ByteBuffer
	bufferSize int
	out        io.Writer
	sink       *bytebufferpool.ByteBuffer
	committed  bool

	access  outputAccess
	writer  ports.Writer
	encoder *transform.Writer
	stream  io.Writer
}

// NewRender creates the response paired with req.
func NewRender(req ports.Request, opts ...Option) *RenderResponse {
	o := newOptions(opts)
	r := &RenderResponse{
		base:       newBase(req, o),
		encoding:   DefaultCharacterEncoding,
		namespace:  namespaceFor(o.windowID),
		baseURL:    o.baseURL,
		secureURLs: o.secureURLs,
		status:     http.StatusOK,
		buf:        bytebufferpool.Get(),
		bufferSize: o.bufferSize,
		out:        o.output,
	}
	if r.out == nil {
		r.sink = bytebufferpool.Get()
		r.out = r.sink
	}
	if r.baseURL == "" {
		r.baseURL = req.ContextPath()
		if !strings.HasPrefix(r.baseURL, "/") {
			r.baseURL = "/" + r.baseURL
		}
	}
	return r
}

func (r *RenderResponse) ContentType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contentType
}

// SetContentType accepts the media types listed by the request, including
// wildcards such as "text/*". A charset parameter selects the writer encoding.
func (r *RenderResponse) SetContentType(contentType string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return domain.NewInvalidArgument("malformed content type " + contentType)
	}
	if !r.acceptable(mediaType) {
		return domain.NewInvalidArgument("content type " + mediaType + " is not accepted by the request")
	}
	charset := params["charset"]
	if charset != "" {
		if _, err := htmlindex.Get(charset); err != nil {
			return domain.NewUnsupportedEncoding(charset, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.access != noAccess {
		return domain.NewInvalidState("content type must be set before the output is obtained")
	}
	r.contentType = contentType
	if charset != "" {
		r.encoding = charset
	}
	return nil
}

func (r *RenderResponse) acceptable(mediaType string) bool {
	return slices.ContainsFunc(r.req.ResponseContentTypes(), func(allowed string) bool {
		allowedType, _, err := mime.ParseMediaType(allowed)
		if err != nil {
			return false
		}
		if allowedType == "*/*" || allowedType == mediaType {
			return true
		}
		prefix, ok := strings.CutSuffix(allowedType, "*")
		return ok && strings.HasPrefix(mediaType, prefix)
	})
}

func (r *RenderResponse) CharacterEncoding() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encoding
}

// Writer returns the character output. Repeated calls return the same writer.
func (r *RenderResponse) Writer() (ports.Writer, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.contentType == "" {
		return nil, domain.NewInvalidState("content type must be set before the writer is obtained")
	}
	if r.access == streamAccess {
		return nil, domain.NewInvalidState("output stream already obtained")
	}
	if r.writer != nil {
		return r.writer, nil
	}

	enc, err := htmlindex.Get(r.encoding)
	if err != nil {
		return nil, domain.NewUnsupportedEncoding(r.encoding, err)
	}
	var w io.Writer = bodyWriter{r}
	if enc != unicode.UTF8 {
		r.encoder = transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder()))
		w = r.encoder
	}
	r.writer = charWriter{w}
	r.access = writerAccess
	return r.writer, nil
}

// OutputStream returns the byte output.
func (r *RenderResponse) OutputStream() (io.Writer, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.contentType == "" {
		return nil, domain.NewInvalidState("content type must be set before the output stream is obtained")
	}
	if r.access == writerAccess {
		return nil, domain.NewInvalidState("writer already obtained")
	}
	if r.stream == nil {
		r.stream = bodyWriter{r}
	}
	r.access = streamAccess
	return r.stream, nil
}

func (r *RenderResponse) CreateRenderURL() ports.URL {
	return purl.NewRender(r.baseURL, r.urlOptions()...)
}

func (r *RenderResponse) CreateActionURL() ports.URL {
	return purl.NewAction(r.baseURL, r.urlOptions()...)
}

func (r *RenderResponse) urlOptions() []purl.Option {
	return []purl.Option{
		purl.WithModeCheck(r.req.IsPortletModeAllowed),
		purl.WithStateCheck(r.req.IsWindowStateAllowed),
		purl.WithSecureSupport(r.secureURLs),
		purl.WithEncoder(func(u string) string {
			if encoded, err := r.EncodeURL(u); err == nil {
				return encoded
			}
			return u
		}),
	}
}

func (r *RenderResponse) Namespace() string { return r.namespace }

func (r *RenderResponse) SetTitle(title string) {
	r.mu.Lock()
	r.title = title
	r.mu.Unlock()
}

// Title returns the title set by the portlet.
func (r *RenderResponse) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

func (r *RenderResponse) Locale() language.Tag { return r.req.Locale() }

// SetBufferSize fails once content was written. A size of zero disables buffering.
func (r *RenderResponse) SetBufferSize(size int) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if size < 0 {
		return domain.NewInvalidArgument("buffer size must not be negative")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.committed || r.buf.Len() > 0 {
		return domain.NewInvalidState("buffer size changed after content was written")
	}
	r.bufferSize = size
	return nil
}

func (r *RenderResponse) BufferSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bufferSize
}

// FlushBuffer writes the buffered content out and commits the response.
func (r *RenderResponse) FlushBuffer() error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *RenderResponse) ResetBuffer() error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.committed {
		return domain.NewInvalidState("buffer reset after the response was committed")
	}
	r.buf.Reset()
	return nil
}

func (r *RenderResponse) IsCommitted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committed
}

// Reset discards the buffered content and the properties.
func (r *RenderResponse) Reset() error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.committed {
		return domain.NewInvalidState("reset after the response was committed")
	}
	r.buf.Reset()
	r.props.Clear()
	return nil
}

// Status returns the status code owned by the host.
func (r *RenderResponse) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// SetStatus is called by the host. Portlets have no way to reach it through
// ports.RenderResponse, and included resources never do.
func (r *RenderResponse) SetStatus(code int) {
	r.mu.Lock()
	r.status = code
	r.mu.Unlock()
}

// Content returns the committed and the pending body. With WithOutput, the
// committed part lives in the configured writer and only pending bytes are returned.
func (r *RenderResponse) Content() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b []byte
	if r.sink != nil {
		b = append(b, r.sink.B...)
	}
	if r.buf != nil {
		b = append(b, r.buf.B...)
	}
	return b
}

// Close flushes the pending content, seals the response and releases its buffer.
func (r *RenderResponse) Close() error {
	if r.Sealed() {
		return nil
	}

	// The encoder writes its held tail through the response, so it is closed
	// before sealing and outside the lock.
	r.mu.Lock()
	enc := r.encoder
	r.encoder = nil
	r.mu.Unlock()
	var encErr error
	if enc != nil {
		encErr = enc.Close()
	}
	r.Seal()

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.flushLocked()
	if err == nil && encErr != nil {
		err = domain.NewIOError("flushing the character encoder", encErr)
	}
	bytebufferpool.Put(r.buf)
	r.buf = nil
	return err
}

func (r *RenderResponse) write(p []byte) (int, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.buf == nil {
		return 0, domain.NewInvalidState("response used after its invocation completed")
	}
	n, _ := r.buf.Write(p)
	if r.buf.Len() >= r.bufferSize {
		if err := r.flushLocked(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (r *RenderResponse) flushLocked() error {
	if r.buf == nil {
		return nil
	}
	r.committed = true
	if r.buf.Len() == 0 {
		return nil
	}
	_, err := r.out.Write(r.buf.B)
	r.buf.Reset()
	if err != nil {
		return domain.NewIOError("writing response body", err)
	}
	return nil
}

type bodyWriter struct{ r *RenderResponse }

func (w bodyWriter) Write(p []byte) (int, error) { return w.r.write(p) }

type charWriter struct{ w io.Writer }

func (c charWriter) Write(p []byte) (int, error) { return c.w.Write(p) }

func (c charWriter) WriteString(s string) (int, error) { return c.w.Write([]byte(s)) }

func namespaceFor(windowID string) string {
	var sb strings.Builder
	sb.WriteByte('_')
	for _, c := range windowID {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			sb.WriteRune(c)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

var _ ports.RenderResponse = (*RenderResponse)(nil)
