// Package gateway attaches websocket connections to the classroom.
//
// Each connection runs a read loop that decodes event envelopes and
// dispatches them to the Coordinator. A failing handler answers its own
// connection with an "error" event; it never takes the loop down.
package gateway
