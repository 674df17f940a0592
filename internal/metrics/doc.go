// Package metrics provides render and cache metrics for rulesweb.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	orchestrator := content.NewOrchestrator(pipeline, content.WithRecorder(recorder))
//
// PrometheusRecorder registers its collectors on a caller-provided registry;
// HTTPHandler exposes that registry on the server's /metrics route.
package metrics
