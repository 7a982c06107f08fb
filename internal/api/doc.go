// Package api implements the optional operational HTTP endpoint for HALink.
//
// This package provides:
//   - A liveness endpoint for process supervisors and uptime checks
//   - A metrics endpoint with bridge counters, broker session state, and
//     Go runtime statistics
//   - Middleware stack (request ID, logging, recovery)
//
// # Architecture
//
// The surface is read-only. HALink is configured entirely through its
// YAML file and environment variables, and device interactions only
// ever flow through the bridge engine, so there is nothing for an HTTP
// client to mutate. Monitoring systems poll /api/v1/health for liveness
// and /api/v1/metrics for detail.
//
// # Security
//
// The listener binds to loopback by default and carries no
// authentication. Deployments that expose it beyond the host should
// front it with their own reverse proxy.
package api
