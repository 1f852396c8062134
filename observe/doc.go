// Package observe provides logging, metrics and tracing for probe execution
// and snapshot collection.
//
// It is an instrumentation library only: the health checker wraps every probe
// call with a Middleware, and the collector reports each query through
// Metrics. Exporter wiring lives in the exporters subpackage.
package observe
