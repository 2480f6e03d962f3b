package httpserver

import (
	"context"
	"net/http"
	"testing"

	"github.com/pscheid92/classpoll/internal/adapter/metrics"
	"github.com/pscheid92/classpoll/internal/app"
	"github.com/pscheid92/classpoll/internal/domain"
	"github.com/pscheid92/classpoll/internal/platform/config"
	apperrors "github.com/pscheid92/classpoll/internal/platform/errors"
)

type mockAuthService struct {
	teacherLoginFn  func(ctx context.Context, username, password string) (*app.Session, error)
	teacherLogoutFn func(ctx context.Context, token string) error
}

func (m *mockAuthService) TeacherLogin(ctx context.Context, username, password string) (*app.Session, error) {
	if m.teacherLoginFn != nil {
		return m.teacherLoginFn(ctx, username, password)
	}
	return nil, apperrors.UnauthorizedError("invalid username or password")
}

func (m *mockAuthService) TeacherLogout(ctx context.Context, token string) error {
	if m.teacherLogoutFn != nil {
		return m.teacherLogoutFn(ctx, token)
	}
	return nil
}

type mockPollQueries struct {
	listPollsByTeacherFn func(ctx context.Context, teacherUsername string) ([]domain.Poll, error)
}

func (m *mockPollQueries) ListPollsByTeacher(ctx context.Context, teacherUsername string) ([]domain.Poll, error) {
	if m.listPollsByTeacherFn != nil {
		return m.listPollsByTeacherFn(ctx, teacherUsername)
	}
	return []domain.Poll{}, nil
}

type stubWebSocket struct {
	clientIP string
}

func (s *stubWebSocket) Serve(w http.ResponseWriter, _ *http.Request, clientIP string) {
	s.clientIP = clientIP
	w.WriteHeader(http.StatusSwitchingProtocols)
}

type serverOption func(*config.Config, *Dependencies)

func withHealthChecks(checks ...HealthCheck) serverOption {
	return func(_ *config.Config, d *Dependencies) { d.HealthChecks = checks }
}

func withAuth(auth authService) serverOption {
	return func(_ *config.Config, d *Dependencies) { d.Auth = auth }
}

func withPolls(polls pollQueries) serverOption {
	return func(_ *config.Config, d *Dependencies) { d.Polls = polls }
}

func withWebSocket(ws WebSocketHandler) serverOption {
	return func(_ *config.Config, d *Dependencies) { d.WebSocket = ws }
}

func withLoginLimit(rate float64, burst int) serverOption {
	return func(c *config.Config, _ *Dependencies) {
		c.LoginRateLimit = rate
		c.LoginRateBurst = burst
	}
}

func withAppURL(url string) serverOption {
	return func(c *config.Config, _ *Dependencies) { c.AppURL = url }
}

func newTestServer(t *testing.T, opts ...serverOption) *Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:         "test",
		Port:           "0",
		LoginRateLimit: 100,
		LoginRateBurst: 100,
	}
	reg := metrics.NewRegistry()
	deps := Dependencies{
		Auth:           &mockAuthService{},
		Polls:          &mockPollQueries{},
		WebSocket:      &stubWebSocket{},
		MetricsHandler: metrics.Handler(reg),
		HTTPMetrics:    metrics.NewHTTPMetrics(reg),
	}
	for _, opt := range opts {
		opt(cfg, &deps)
	}

	return NewServer(cfg, deps)
}
