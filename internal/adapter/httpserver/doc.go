// Package httpserver is the echo HTTP surface: teacher login, poll history,
// the websocket upgrade, health probes and metrics.
package httpserver
