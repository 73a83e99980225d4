// Package middleware provides the HTTP middleware stack: a W3C extended
// format access logger and Prometheus request metrics keyed by route
// template. Both are installed with mux.Router.Use.
package middleware
