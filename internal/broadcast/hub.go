package broadcast

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/classpoll/internal/adapter/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
	commandBuffer  = 256
)

var (
	ErrTooManyConnections = errors.New("connection limit reached")
	ErrHubStopped         = errors.New("hub stopped")
)

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connectionID string
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	connectionID string
}

type broadcastCmd struct {
	baseHubCmd
	data []byte
}

type sendCmd struct {
	baseHubCmd
	connectionID string
	data         []byte
}

type disconnectCmd struct {
	baseHubCmd
	connectionID string
	notice       []byte
}

type clientCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub owns every live websocket connection and fans frames out to them.
type Hub struct {
	cmdCh       chan hubCmd
	clock       clockwork.Clock
	clients     map[string]*clientWriter
	maxClients  int
	metrics     *metrics.WebSocketMetrics
	done        chan struct{}
	stopTimeout time.Duration
}

// NewHub starts the hub goroutine. maxClients caps concurrent connections.
func NewHub(clock clockwork.Clock, maxClients int, m *metrics.WebSocketMetrics) *Hub {
	h := &Hub{
		cmdCh:       make(chan hubCmd, commandBuffer),
		clock:       clock,
		clients:     make(map[string]*clientWriter),
		maxClients:  maxClients,
		metrics:     m,
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
	}
	go h.run()
	return h
}

// Register adds a connection under connectionID. The connection is closed
// and an error returned when the hub is full.
func (h *Hub) Register(connectionID string, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	if !h.enqueue(registerCmd{connectionID: connectionID, connection: conn, errorChannel: errCh}) {
		return ErrHubStopped
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection. Unknown IDs are ignored.
func (h *Hub) Unregister(connectionID string) {
	h.enqueue(unregisterCmd{connectionID: connectionID})
}

// Broadcast queues data for every registered connection.
func (h *Hub) Broadcast(data []byte) {
	h.enqueue(broadcastCmd{data: data})
}

// Send queues data for a single connection.
func (h *Hub) Send(connectionID string, data []byte) {
	h.enqueue(sendCmd{connectionID: connectionID, data: data})
}

// Disconnect removes the connection, writes notice to it and closes the
// socket without a close handshake.
func (h *Hub) Disconnect(connectionID string, notice []byte) {
	h.enqueue(disconnectCmd{connectionID: connectionID, notice: notice})
}

// ClientCount returns the number of registered connections, or -1 on timeout.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	if !h.enqueue(clientCountCmd{replyChannel: replyCh}) {
		return 0
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop closes every connection with a close frame and waits for the hub
// goroutine to exit.
func (h *Hub) Stop() {
	if !h.enqueue(stopCmd{}) {
		return
	}

	timeout := h.clock.NewTimer(h.stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", h.stopTimeout)
	}
}

func (h *Hub) enqueue(cmd hubCmd) bool {
	select {
	case h.cmdCh <- cmd:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) run() {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAllClients("hub failure")
		}
	}()

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c)
		case broadcastCmd:
			h.handleBroadcast(c)
		case sendCmd:
			h.handleSend(c)
		case disconnectCmd:
			h.handleDisconnect(c)
		case clientCountCmd:
			c.replyChannel <- len(h.clients)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting connection: limit reached", "connection_id", c.connectionID, "max_clients", h.maxClients)
		h.metrics.RejectedConnections.Inc()
		_ = c.connection.Close()
		c.errorChannel <- fmt.Errorf("%w (%d)", ErrTooManyConnections, h.maxClients)
		return
	}

	if old, exists := h.clients[c.connectionID]; exists {
		old.stop()
		h.metrics.ActiveConnections.Dec()
	}

	h.clients[c.connectionID] = newClientWriter(c.connection, h.clock)
	h.metrics.ActiveConnections.Inc()

	slog.Debug("Connection registered", "connection_id", c.connectionID, "total_clients", len(h.clients))
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(c unregisterCmd) {
	cw, exists := h.clients[c.connectionID]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, c.connectionID)
	h.metrics.ActiveConnections.Dec()

	slog.Debug("Connection unregistered", "connection_id", c.connectionID, "remaining_clients", len(h.clients))
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	var slow []string
	for id, cw := range h.clients {
		if !h.offer(cw, c.data) {
			slow = append(slow, id)
		}
	}
	for _, id := range slow {
		h.evict(id)
	}
}

func (h *Hub) handleSend(c sendCmd) {
	cw, exists := h.clients[c.connectionID]
	if !exists {
		slog.Debug("Dropping frame for unknown connection", "connection_id", c.connectionID)
		return
	}
	if !h.offer(cw, c.data) {
		h.evict(c.connectionID)
	}
}

func (h *Hub) handleDisconnect(c disconnectCmd) {
	cw, exists := h.clients[c.connectionID]
	if !exists {
		return
	}

	delete(h.clients, c.connectionID)
	h.metrics.ActiveConnections.Dec()
	h.metrics.ForcedDisconnects.Inc()

	// terminate waits for the writer goroutine; keep the actor loop free.
	go cw.terminate(c.notice)

	slog.Info("Connection terminated", "connection_id", c.connectionID)
}

func (h *Hub) offer(cw *clientWriter, data []byte) bool {
	select {
	case cw.sendChannel <- data:
		h.metrics.MessagesSent.Inc()
		return true
	default:
		return false
	}
}

func (h *Hub) evict(connectionID string) {
	slog.Warn("Disconnecting slow client", "connection_id", connectionID)
	h.metrics.SlowClientsEvicted.Inc()
	h.handleUnregister(unregisterCmd{connectionID: connectionID})
}

func (h *Hub) handleStop() {
	total := len(h.clients)
	slog.Info("Hub shutting down", "total_clients", total)
	h.closeAllClients("Server shutting down")
	slog.Info("Hub shutdown complete", "disconnected_clients", total)
}

func (h *Hub) closeAllClients(reason string) {
	for id, cw := range h.clients {
		cw.stopGraceful(reason)
		delete(h.clients, id)
	}
	h.metrics.ActiveConnections.Set(0)
}
