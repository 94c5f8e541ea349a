/*
Package observability turns portlet lifecycle hooks into metrics and logs.

Metrics registers Prometheus collectors for invocations, includes and
preference commits. LogHooks emits one structured record per event. Both
return domain.LifecycleHooks, so they compose with Merge:

	hooks := metrics.Hooks().Merge(observability.LogHooks(logger))
*/
package observability
