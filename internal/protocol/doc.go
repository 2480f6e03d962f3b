// Package protocol defines the realtime event surface spoken over the websocket:
// event names, payload shapes and the {"event", "data"} envelope every frame uses.
package protocol
