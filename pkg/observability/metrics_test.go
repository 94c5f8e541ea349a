package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnInvocationEnd(ctx, &domain.InvocationEvent{Portlet: "news", Phase: domain.PhaseRender, Duration: time.Millisecond})
	hooks.OnInvocationEnd(ctx, &domain.InvocationEvent{Portlet: "news", Phase: domain.PhaseRender, Err: errors.New("boom")})
	hooks.OnInclude(ctx, &domain.IncludeEvent{Path: "/a"})
	hooks.OnPreferences(ctx, &domain.PreferencesEvent{Key: "k", Accepted: true})
	hooks.OnPreferences(ctx, &domain.PreferencesEvent{Key: "k", FailedKeys: []string{"a", "b"}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("news", "render", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("news", "render", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Includes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PreferenceCommits.WithLabelValues("stored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PreferenceCommits.WithLabelValues("rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FailedKeys))

	assert.Nil(t, hooks.OnInvocationStart, "starts are not measured")
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)

	_, err = observability.NewMetrics(nil)
	assert.NoError(t, err)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m, err := observability.NewMetrics(nil)
	require.NoError(t, err)
	hooks := m.Hooks().Merge(observability.LogHooks(logger))
	ctx := context.Background()

	hooks.OnInvocationStart(ctx, &domain.InvocationEvent{EventBase: domain.EventBase{Type: domain.EventRenderStart}, Portlet: "news"})
	hooks.OnPreferences(ctx, &domain.PreferencesEvent{
		EventBase:  domain.EventBase{Type: domain.EventValidationFailed},
		Key:        "k",
		FailedKeys: []string{"count"},
	})

	out := buf.String()
	assert.Contains(t, out, "render_start")
	assert.Contains(t, out, "portlet=news")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "validation_failed")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PreferenceCommits.WithLabelValues("rejected")))
}
