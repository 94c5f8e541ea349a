package observability

import (
	"context"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "portlet"

// Metrics holds the Prometheus collectors fed by Hooks.
type Metrics struct {
	Invocations        *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
	Includes           *prometheus.CounterVec
	IncludeDuration    prometheus.Histogram
	PreferenceCommits  *prometheus.CounterVec
	FailedKeys         prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Portlet action and render invocations by outcome.",
		}, []string{"portlet", "phase", "outcome"}),
		InvocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Duration of portlet invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"portlet", "phase"}),
		Includes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "includes_total",
			Help:      "Dispatcher includes by outcome.",
		}, []string{"outcome"}),
		IncludeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "include_duration_seconds",
			Help:      "Duration of dispatcher includes.",
			Buckets:   prometheus.DefBuckets,
		}),
		PreferenceCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preference_commits_total",
			Help:      "Preference store attempts by result.",
		}, []string{"result"}),
		FailedKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preference_failed_keys_total",
			Help:      "Preference keys reported by validators.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.Invocations, m.InvocationDuration, m.Includes,
			m.IncludeDuration, m.PreferenceCommits, m.FailedKeys,
		} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInvocationEnd: func(_ context.Context, e *domain.InvocationEvent) {
			m.Invocations.WithLabelValues(e.Portlet, string(e.Phase), outcome(e.Err)).Inc()
			m.InvocationDuration.WithLabelValues(e.Portlet, string(e.Phase)).Observe(e.Duration.Seconds())
		},
		OnInclude: func(_ context.Context, e *domain.IncludeEvent) {
			m.Includes.WithLabelValues(outcome(e.Err)).Inc()
			m.IncludeDuration.Observe(e.Duration.Seconds())
		},
		OnPreferences: func(_ context.Context, e *domain.PreferencesEvent) {
			result := "stored"
			if !e.Accepted {
				result = "rejected"
			}
			m.PreferenceCommits.WithLabelValues(result).Inc()
			m.FailedKeys.Add(float64(len(e.FailedKeys)))
		},
	}
}
