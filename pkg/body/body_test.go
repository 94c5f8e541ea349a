package body_test

import (
	"io"
	"strings"
	"testing"

	"github.com/aretw0/portlet/pkg/body"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bodyRequest satisfies the ActionRequest contract by embedding a Body; the
// base Request methods are never called by the body contract.
type bodyRequest struct {
	ports.Request
	*body.Body
}

func TestBody_ActionRequestContract(t *testing.T) {
	ports.RunActionRequestContract(t, func(payload, contentType string) ports.ActionRequest {
		return bodyRequest{Body: body.New(strings.NewReader(payload), contentType, body.WithContentLength(int64(len(payload))))}
	})
}

func TestBody_ReaderDecodesCharset(t *testing.T) {
	// "café" in ISO-8859-1.
	raw := []byte{'c', 'a', 'f', 0xe9}
	b := body.New(strings.NewReader(string(raw)), "text/plain; charset=ISO-8859-1")

	assert.Equal(t, "ISO-8859-1", b.CharacterEncoding())

	r, err := b.Reader()
	require.NoError(t, err)
	text, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "café", string(text))
}

func TestBody_SetCharacterEncodingBeforeRead(t *testing.T) {
	raw := []byte{'c', 'a', 'f', 0xe9}
	b := body.New(strings.NewReader(string(raw)), "text/plain")

	require.NoError(t, b.SetCharacterEncoding("latin1"))
	r, err := b.Reader()
	require.NoError(t, err)
	text, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "café", string(text))
}

func TestBody_InvalidCharsetFailsOnRead(t *testing.T) {
	b := body.New(strings.NewReader("x"), "text/plain; charset=x-unknown")

	_, err := b.Reader()
	assert.ErrorIs(t, err, domain.ErrUnsupportedEncoding)

	// A failed decode does not latch the body.
	_, err = b.PortletInputStream()
	assert.NoError(t, err)
}

func TestBody_RepeatedAccessReturnsSameHandle(t *testing.T) {
	b := body.New(strings.NewReader("abc"), "text/plain")

	r1, err := b.Reader()
	require.NoError(t, err)
	r2, err := b.Reader()
	require.NoError(t, err)
	assert.Same(t, r1, r2)

	s := body.New(strings.NewReader("abc"), "application/octet-stream")
	first, err := s.PortletInputStream()
	require.NoError(t, err)
	second, err := s.PortletInputStream()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBody_Sentinels(t *testing.T) {
	b := body.New(nil, "")

	assert.Equal(t, "", b.ContentType())
	assert.Equal(t, "", b.CharacterEncoding())
	assert.Equal(t, int64(-1), b.ContentLength())

	r, err := b.Reader()
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestBody_FormDetectionIgnoresParameters(t *testing.T) {
	b := body.New(strings.NewReader("a=1"), "Application/X-WWW-Form-Urlencoded; charset=UTF-8")
	assert.True(t, b.IsForm())
}
