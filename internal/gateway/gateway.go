package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pscheid92/classpoll/internal/adapter/metrics"
	"github.com/pscheid92/classpoll/internal/classroom"
	"github.com/pscheid92/classpoll/internal/platform/correlation"
	"github.com/pscheid92/classpoll/internal/protocol"

	apperrors "github.com/pscheid92/classpoll/internal/platform/errors"
)

const maxFrameSize = 64 * 1024

// Hub is the connection side of the fan-out hub.
type Hub interface {
	Register(connectionID string, conn *websocket.Conn) error
	Unregister(connectionID string)
	Send(connectionID string, data []byte)
}

type Config struct {
	AppURL              string
	IsDevelopment       bool
	MaxConnectionsPerIP int
}

type Gateway struct {
	coordinator *classroom.Coordinator
	hub         Hub
	upgrader    websocket.Upgrader
	perIP       *IPConnectionLimiter
	metrics     *metrics.ClassroomMetrics
	handlers    map[string]handlerFunc
}

func New(coordinator *classroom.Coordinator, hub Hub, cfg Config, m *metrics.ClassroomMetrics) *Gateway {
	g := &Gateway{
		coordinator: coordinator,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     NewCheckOrigin(cfg.AppURL, cfg.IsDevelopment),
		},
		perIP:   NewIPConnectionLimiter(cfg.MaxConnectionsPerIP),
		metrics: m,
	}
	g.handlers = g.routes()
	return g
}

// ServeHTTP upgrades the request, using the remote address as client IP.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	g.Serve(w, r, ip)
}

// Serve upgrades the request and runs the connection's read loop until the
// connection closes.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, clientIP string) {
	if !g.perIP.Acquire(clientIP) {
		slog.Warn("Rejecting websocket: per-IP limit reached", "client_ip", clientIP)
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}
	defer g.perIP.Release(clientIP)

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("WebSocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxFrameSize)

	id := uuid.New().String()
	if err := g.hub.Register(id, conn); err != nil {
		slog.Warn("WebSocket registration failed", "connection_id", id, "error", err)
		return
	}

	s := &session{
		id:       id,
		clientIP: clientIP,
		conn:     conn,
		ctx:      correlation.WithConnection(context.Background(), id),
		state:    stateConnected,
	}
	slog.InfoContext(s.ctx, "WebSocket connected", "client_ip", clientIP)

	g.readLoop(s)
	g.release(s)
}

func (g *Gateway) readLoop(s *session) {
	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				slog.DebugContext(s.ctx, "WebSocket read failed", "error", err)
			}
			return
		}

		if g.coordinator.IsSevered(s.id) {
			return
		}
		g.dispatch(s, frame)
	}
}

// release runs once per connection, whether it closed or was kicked.
func (g *Gateway) release(s *session) {
	wasIdentified := s.state == stateIdentified
	s.state = stateDisconnected

	g.hub.Unregister(s.id)
	g.coordinator.Release(s.ctx, s.id)
	_ = s.conn.Close()

	slog.InfoContext(s.ctx, "WebSocket disconnected", "client_ip", s.clientIP, "identified", wasIdentified)
}

func (g *Gateway) dispatch(s *session, frame []byte) {
	ctx := correlation.ForEvent(s.ctx, s.id)

	env, err := protocol.Decode(frame)
	if err != nil {
		g.fail(ctx, s, "", apperrors.ValidationError(err.Error()))
		return
	}

	handler, ok := g.handlers[env.Event]
	if !ok {
		g.fail(ctx, s, env.Event, apperrors.ValidationError("unknown event"))
		return
	}

	if err := g.invoke(ctx, s, env, handler); err != nil {
		g.fail(ctx, s, env.Event, err)
	}
}

func (g *Gateway) invoke(ctx context.Context, s *session, env protocol.Envelope, handler handlerFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.InternalError("internal error", fmt.Errorf("panic in %s handler: %v", env.Event, r))
		}
	}()
	return handler(ctx, s, env)
}

// fail answers the originating connection with an error event.
func (g *Gateway) fail(ctx context.Context, s *session, event string, err error) {
	se := apperrors.AsStructuredError(err)
	g.metrics.EventErrors.WithLabelValues(eventLabel(event), string(se.Type)).Inc()

	attrs := []any{"event", event, "error_type", se.Type, "error", se}
	for k, v := range se.Context {
		attrs = append(attrs, k, v)
	}
	if se.Type == apperrors.TypeValidation {
		slog.WarnContext(ctx, "Event rejected", attrs...)
	} else {
		slog.ErrorContext(ctx, "Event failed", attrs...)
	}

	frame, encErr := protocol.Encode(protocol.EventError, protocol.Error{Message: se.Message})
	if encErr != nil {
		slog.ErrorContext(ctx, "Failed to encode error event", "error", encErr)
		return
	}
	g.hub.Send(s.id, frame)
}

// eventLabel bounds the metric label to known events.
func eventLabel(event string) string {
	switch event {
	case protocol.EventCreatePoll, protocol.EventSubmitAnswer, protocol.EventJoinChat,
		protocol.EventKickOut, protocol.EventStudentLogin, protocol.EventChatMessage:
		return event
	case "":
		return "malformed"
	default:
		return "unknown"
	}
}
