// Package classroom holds the live session state of the single global
// classroom: who is connected, which poll is current and how it has been
// answered so far.
//
// Coordinator is the aggregate the gateway talks to. Every mutation and the
// fan-out it produces are enqueued under one lock, so connections observe
// events in mutation order.
package classroom
