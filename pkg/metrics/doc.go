// Package metrics exposes Prometheus instrumentation for alias resolution,
// the subscription multiplexer and the push channel.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional metrics handle without nil checks at every call site.
package metrics
