/*
Package observability exports journey processing as Prometheus metrics.

NewMetrics registers the collectors and Hooks adapts them to domain.LifecycleHooks, so the
engine reports routed events, step outcomes, handler latency and live emergencies without
knowing about Prometheus:

	m := observability.NewMetrics(reg)
	eng := carepath.New(carepath.WithLifecycleHooks(m.Hooks()))
*/
package observability
