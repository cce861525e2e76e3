// Package observability builds the zap logger and the Prometheus metrics
// registry shared by the HTTP layer.
package observability
