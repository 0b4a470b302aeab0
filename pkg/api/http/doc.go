// Package http provides the ops HTTP API.
//
// The HTTP server exposes endpoints for:
//   - Health checks reflecting the current session state
//   - Prometheus metrics
//   - Session records
package http
