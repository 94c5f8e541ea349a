package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/portlet/pkg/domain"
)

// LogHooks returns lifecycle hooks that log every event to logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInvocationStart: func(ctx context.Context, e *domain.InvocationEvent) {
			logger.DebugContext(ctx, string(e.Type),
				"portlet", e.Portlet,
				"window_id", e.WindowID,
				"mode", e.Mode,
				"state", e.State,
			)
		},
		OnInvocationEnd: func(ctx context.Context, e *domain.InvocationEvent) {
			level := slog.LevelInfo
			if e.Err != nil {
				level = slog.LevelError
			}
			logger.Log(ctx, level, string(e.Type),
				"portlet", e.Portlet,
				"window_id", e.WindowID,
				"duration", e.Duration,
				"error", e.Err,
			)
		},
		OnInclude: func(ctx context.Context, e *domain.IncludeEvent) {
			logger.DebugContext(ctx, string(e.Type), "path", e.Path, "duration", e.Duration, "error", e.Err)
		},
		OnPreferences: func(ctx context.Context, e *domain.PreferencesEvent) {
			if e.Accepted {
				logger.InfoContext(ctx, string(e.Type), "key", e.Key)
				return
			}
			logger.WarnContext(ctx, string(e.Type), "key", e.Key, "failed_keys", e.FailedKeys)
		},
	}
}
