package dispatcher

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
)

// includeWriter adapts a RenderResponse to http.ResponseWriter.
type includeWriter struct {
	resp   ports.RenderResponse
	header http.Header
	logger *slog.Logger

	out     io.Writer
	flushed bool
	err     error
}

func (w *includeWriter) Header() http.Header { return w.header }

// WriteHeader is ignored: the including portlet owns the status.
func (w *includeWriter) WriteHeader(code int) {
	w.logger.Debug("ignoring status set by included resource", "status", code)
	w.commitHeaders()
}

func (w *includeWriter) Write(p []byte) (int, error) {
	w.commitHeaders()
	if w.out == nil {
		out, err := w.output()
		if err != nil {
			w.err = err
			return 0, err
		}
		w.out = out
	}
	n, err := w.out.Write(p)
	if err != nil && w.err == nil {
		w.err = err
	}
	return n, err
}

// output prefers the writer and falls back to the stream the portlet already took.
func (w *includeWriter) output() (io.Writer, error) {
	if w.resp.ContentType() == "" {
		if ct := w.header.Get("Content-Type"); ct != "" {
			if err := w.resp.SetContentType(ct); err != nil {
				return nil, err
			}
		}
	}
	out, err := w.resp.Writer()
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, domain.ErrInvalidState) || w.resp.ContentType() == "" {
		return nil, err
	}
	return w.resp.OutputStream()
}

// commitHeaders copies the resource headers into response properties once.
// Content-Type is owned by the including response.
func (w *includeWriter) commitHeaders() {
	if w.flushed {
		return
	}
	w.flushed = true
	for key, values := range w.header {
		if key == "Content-Type" {
			continue
		}
		for _, v := range values {
			if err := w.resp.AddProperty(key, v); err != nil && w.err == nil {
				w.err = err
			}
		}
	}
}

var _ http.ResponseWriter = (*includeWriter)(nil)
