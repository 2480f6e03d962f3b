// Package broadcast implements the websocket fan-out hub using the actor pattern.
//
// One goroutine owns the connection map and processes commands from a single
// channel, so frames leave in the order they were enqueued. Each connection
// has its own writer goroutine; a client whose buffer is full is evicted
// instead of stalling everyone else.
package broadcast
