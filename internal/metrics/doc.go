// Package metrics exposes hostwatch's own counters and gauges in Prometheus
// format, either over HTTP (Handler) or as a node_exporter textfile
// (WriteTextfile).
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics
