package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/portlet/internal/testutils"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, files)
	return New(loam.NewTypedRepository[DefinitionMetadata](repo))
}

func TestLoader_LoadDefinition(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"news.md": `---
defaults:
  count: 5
  ratio: 0.5
  enabled: true
  feeds: [world, sports]
  title: Headlines
read_only: [source]
types:
  count: int
  feeds: [string]
---
Latest headlines portlet.`,
	})

	def, err := loader.LoadDefinition(context.Background(), "news")
	require.NoError(t, err)

	assert.Equal(t, "news", def.Name, "name defaults to the document path")
	assert.Equal(t, []string{"5"}, def.Defaults["count"])
	assert.Equal(t, []string{"0.5"}, def.Defaults["ratio"])
	assert.Equal(t, []string{"true"}, def.Defaults["enabled"])
	assert.Equal(t, []string{"world", "sports"}, def.Defaults["feeds"])
	assert.Equal(t, []string{"Headlines"}, def.Defaults["title"])
	assert.Equal(t, []string{"source"}, def.ReadOnly)
	assert.Equal(t, map[string]string{"count": "int", "feeds": "[string]"}, def.Types)
}

func TestLoader_LoadDefinition_ByNameField(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"weather.json": `{"name": "forecast", "defaults": {"city": "Lisbon"}}`,
	})

	def, err := loader.LoadDefinition(context.Background(), "forecast")
	require.NoError(t, err)
	assert.Equal(t, "forecast", def.Name)
	assert.Equal(t, []string{"Lisbon"}, def.Defaults["city"])
}

func TestLoader_LoadDefinition_NotFound(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"news.md": "---\nname: news\n---\n",
	})

	_, err := loader.LoadDefinition(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrPreferencesNotFound)
}

func TestLoader_LoadDefinition_InvalidValues(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"nested.md": `---
defaults:
  bad:
    inner: 1
---
`,
		"types.md": `---
types:
  feeds: [string, int]
---
`,
	})
	ctx := context.Background()

	_, err := loader.LoadDefinition(ctx, "nested")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defaults.bad")

	_, err = loader.LoadDefinition(ctx, "types")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "types.feeds")
}

func TestLoader_ListDefinitions(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"weather.md": "---\ndefaults:\n  city: Porto\n---\n",
		"news.json":  `{"defaults": {"count": "3"}}`,
		"other.md":   "---\nname: calendar\n---\n",
	})

	names, err := loader.ListDefinitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"calendar", "news", "weather"}, names)
}

func TestLoader_ListDefinitions_DetectsCollisions(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"foo.md":   "---\nname: foo\n---\n",
		"foo.json": `{"name": "foo"}`,
	})

	_, err := loader.ListDefinitions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "foo")
}

func TestFormatSchemaType(t *testing.T) {
	typ, err := formatSchemaType([]any{[]any{"int"}})
	require.NoError(t, err)
	assert.Equal(t, "[[int]]", typ)

	_, err = formatSchemaType(42)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"news.json": `{"defaults": {"count": 12345678901234}}`,
	})

	loader, err := Open(dir)
	require.NoError(t, err)

	def, err := loader.LoadDefinition(context.Background(), "news")
	require.NoError(t, err)
	assert.Equal(t, []string{"12345678901234"}, def.Defaults["count"])
}
