package gateway

import (
	"context"

	"github.com/gorilla/websocket"
)

type sessionState int

const (
	// stateConnected receives broadcasts but is not in the participant registry.
	stateConnected sessionState = iota
	stateIdentified
	stateDisconnected
)

func (s sessionState) String() string {
	switch s {
	case stateConnected:
		return "connected"
	case stateIdentified:
		return "identified"
	case stateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// session is owned by its connection's read loop goroutine.
type session struct {
	id       string
	clientIP string
	conn     *websocket.Conn
	ctx      context.Context
	state    sessionState
}
