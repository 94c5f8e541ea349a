package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/portlet/pkg/adapters/memory"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunPreferencesStoreContract(t, store)
}

func TestMemoryLoader(t *testing.T) {
	loader := memory.NewLoader(&domain.PreferenceDefinition{
		Name:     "news",
		Defaults: map[string][]string{"count": {"5"}},
		ReadOnly: []string{"source"},
	})
	ctx := context.Background()

	def, err := loader.LoadDefinition(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, def.Defaults["count"])
	def.Defaults["count"][0] = "mutated"

	again, err := loader.LoadDefinition(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, again.Defaults["count"])

	_, err = loader.LoadDefinition(ctx, "weather")
	assert.ErrorIs(t, err, domain.ErrPreferencesNotFound)
}
