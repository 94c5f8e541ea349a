package ports

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPreferencesStoreContract runs a suite of tests to verify that a PreferencesStore
// implementation adheres to the defined interface contract.
func RunPreferencesStoreContract(t *testing.T, store PreferencesStore) {
	ctx := context.Background()
	key := "contract-test-prefs-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		values := map[string][]string{
			"color": {"blue"},
			"feeds": {"a", "b", "c"},
		}

		err := store.Save(ctx, key, values)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, []string{"blue"}, loaded["color"])
		assert.Equal(t, []string{"a", "b", "c"}, loaded["feeds"], "value order must be preserved")
	})

	t.Run("Save Replaces Whole Set", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, map[string][]string{"color": {"red"}, "size": {"3"}}))
		require.NoError(t, store.Save(ctx, key, map[string][]string{"color": {"green"}}))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{"color": {"green"}}, loaded)
	})

	t.Run("Load Isolated From Caller", func(t *testing.T) {
		values := map[string][]string{"color": {"blue"}}
		require.NoError(t, store.Save(ctx, key, values))
		values["color"][0] = "mutated"

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []string{"blue"}, loaded["color"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrPreferencesNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, key, map[string][]string{"x": {"1"}})
		require.NoError(t, err)

		err = store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrPreferencesNotFound, "Load after Delete should return ErrPreferencesNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting a missing set should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, map[string][]string{"a": {"1"}})
		_ = store.Save(ctx, id2, map[string][]string{"b": {"2"}})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})

	t.Run("Keys Shaped Like Internal Names", func(t *testing.T) {
		names := []string{"index", ".tmp-" + key, "lock:" + key, "set:" + key}
		for _, name := range names {
			require.NoError(t, store.Save(ctx, name, map[string][]string{"k": {name}}), "Save(%q)", name)
		}
		defer func() {
			for _, name := range names {
				_ = store.Delete(ctx, name)
			}
		}()

		for _, name := range names {
			loaded, err := store.Load(ctx, name)
			require.NoError(t, err, "Load(%q)", name)
			assert.Equal(t, []string{name}, loaded["k"])
		}
		keys, err := store.List(ctx)
		require.NoError(t, err)
		for _, name := range names {
			assert.Contains(t, keys, name)
		}
	})
}

// ResponseUnderTest pairs a Response with a way to observe its properties.
type ResponseUnderTest struct {
	Response   Response
	Properties func(key string) []string
}

// RunResponseContract verifies the property and URL encoding semantics of a Response.
// newResponse must return a fresh response for every call.
func RunResponseContract(t *testing.T, newResponse func() ResponseUnderTest) {
	t.Run("Set Then Add Accumulates", func(t *testing.T) {
		r := newResponse()
		require.NoError(t, r.Response.SetProperty("k", "v"))
		require.NoError(t, r.Response.AddProperty("k", "v2"))
		assert.Equal(t, []string{"v", "v2"}, r.Properties("k"))
	})

	t.Run("Set Collapses Values", func(t *testing.T) {
		r := newResponse()
		require.NoError(t, r.Response.AddProperty("k", "v"))
		require.NoError(t, r.Response.AddProperty("k", "v2"))
		require.NoError(t, r.Response.SetProperty("k", "v3"))
		assert.Equal(t, []string{"v3"}, r.Properties("k"))
	})

	t.Run("Empty Key Rejected", func(t *testing.T) {
		r := newResponse()
		assert.ErrorIs(t, r.Response.AddProperty("", "v"), domain.ErrInvalidArgument)
		assert.ErrorIs(t, r.Response.SetProperty("", "v"), domain.ErrInvalidArgument)
	})

	t.Run("EncodeURL Accepts Absolute Forms", func(t *testing.T) {
		r := newResponse()
		for _, path := range []string{"/a/b", "http://host/a"} {
			encoded, err := r.Response.EncodeURL(path)
			assert.NoError(t, err, path)
			assert.NotEmpty(t, encoded, path)
		}
	})

	t.Run("EncodeURL Rejects Relative Paths", func(t *testing.T) {
		r := newResponse()
		for _, path := range []string{"relative/path", "", "a.html"} {
			_, err := r.Response.EncodeURL(path)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument, path)
		}
	})
}

// RunActionRequestContract verifies the body access rules of an ActionRequest.
// newRequest must return a fresh request carrying body with the given content type.
func RunActionRequestContract(t *testing.T, newRequest func(body, contentType string) ActionRequest) {
	const text = "hello=world"

	t.Run("Stream After Reader Fails", func(t *testing.T) {
		req := newRequest(text, "text/plain")
		_, err := req.Reader()
		require.NoError(t, err)

		_, err = req.PortletInputStream()
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("Reader After Stream Fails", func(t *testing.T) {
		req := newRequest(text, "text/plain")
		stream, err := req.PortletInputStream()
		require.NoError(t, err)

		data, err := io.ReadAll(stream)
		require.NoError(t, err)
		assert.Equal(t, text, string(data))

		_, err = req.Reader()
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("Encoding After Read Fails", func(t *testing.T) {
		req := newRequest(text, "text/plain")
		_, err := req.PortletInputStream()
		require.NoError(t, err)
		assert.ErrorIs(t, req.SetCharacterEncoding("UTF-8"), domain.ErrInvalidState)

		req = newRequest(text, "text/plain")
		_, err = req.Reader()
		require.NoError(t, err)
		assert.ErrorIs(t, req.SetCharacterEncoding("UTF-8"), domain.ErrInvalidState)
	})

	t.Run("Unknown Encoding Rejected", func(t *testing.T) {
		req := newRequest(text, "text/plain")
		assert.ErrorIs(t, req.SetCharacterEncoding("x-no-such-charset"), domain.ErrUnsupportedEncoding)
	})

	t.Run("Form Body Not Readable", func(t *testing.T) {
		req := newRequest(text, domain.ContentTypeFormURLEncoded)
		_, err := req.PortletInputStream()
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		_, err = req.Reader()
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("Accessors Never Fail", func(t *testing.T) {
		req := newRequest(text, "text/plain")
		assert.Equal(t, "text/plain", req.ContentType())
		_ = req.CharacterEncoding()
		assert.GreaterOrEqual(t, req.ContentLength(), int64(-1))
	})
}
