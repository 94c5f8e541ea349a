package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/portlet/pkg/adapters/file"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunPreferencesStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	t.Run("Keys Are Escaped", func(t *testing.T) {
		key := "news/window 1"
		require.NoError(t, store.Save(ctx, key, map[string][]string{"count": {"5"}}))

		_, err := os.Stat(filepath.Join(dir, "news%2Fwindow%201.json"))
		require.NoError(t, err, "file name should be the escaped key")

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{key}, keys)

		require.NoError(t, store.Delete(ctx, key))
	})

	t.Run("List Ignores Foreign Files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.txt"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "save-123.tmp"), []byte("{}"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))
		require.NoError(t, store.Save(ctx, "b", map[string][]string{}))
		require.NoError(t, store.Save(ctx, "a", map[string][]string{}))

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)
	})

	t.Run("Temp-Like Keys Are Listed", func(t *testing.T) {
		key := ".tmp-draft"
		require.NoError(t, store.Save(ctx, key, map[string][]string{"x": {"1"}}))

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, key)

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, loaded["x"])
		require.NoError(t, store.Delete(ctx, key))
	})

	t.Run("Empty Key", func(t *testing.T) {
		assert.ErrorIs(t, store.Save(ctx, "", nil), domain.ErrInvalidArgument)
		_, err := store.Load(ctx, "")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.ErrorIs(t, store.Delete(ctx, ""), domain.ErrInvalidArgument)
	})

	t.Run("Corrupt File", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
		_, err := store.Load(ctx, "broken")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrPreferencesNotFound)
	})

	t.Run("Null File Loads Empty", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "nil", nil))
		values, err := store.Load(ctx, "nil")
		require.NoError(t, err)
		assert.Empty(t, values)
		assert.NotNil(t, values)
	})
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
