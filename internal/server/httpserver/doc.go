// Package httpserver serves the operational HTTP endpoints of the session
// daemon:
//
//   - GET /metrics  Prometheus exposition of the process registry
//   - GET /healthz  liveness, plus a storage ping when the backend supports one
//
// Every request passes through Recover, RequestID and Audit, then an
// optional global RateLimit.
package httpserver
