// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces that pipeline stages use to report advisory progress.
// Events batch on a background goroutine and fan out to pluggable sinks such
// as structured logs or Prometheus metrics.
package progress
