// Package middleware provides HTTP middleware for the photobook service.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with low-cardinality path labels
//   - Response compression (gzip) for JSON payloads
//   - Configurable filtering for thumbnail files and health checks
package middleware
