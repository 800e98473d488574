// Package api implements hostwatch's read-only HTTP status API.
//
// New returns an http.Handler that serves:
//
//	GET /api/v1/health  latest check report per disk and the overall state
//	GET /api/v1/alerts  cooldown state per alert key
//	GET /metrics        Prometheus exposition of hostwatch's own metrics
//
// JSON endpoints return 405 for non-GET methods. No external HTTP framework
// is used.
package api
