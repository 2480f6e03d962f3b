package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AllFamiliesRegister(t *testing.T) {
	reg := NewRegistry()

	ws := NewWebSocketMetrics(reg)
	cls := NewClassroomMetrics(reg)
	per := NewPersistenceMetrics(reg)
	_ = NewHTTPMetrics(reg)
	_ = NewDatabaseMetrics(reg)
	_ = NewRedisMetrics(reg)

	ws.ActiveConnections.Inc()
	cls.VotesRecorded.WithLabelValues("accepted").Inc()
	cls.VotesRecorded.WithLabelValues("accepted").Inc()
	per.StaleCompletions.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(ws.ActiveConnections))
	assert.Equal(t, 2.0, testutil.ToFloat64(cls.VotesRecorded.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(per.StaleCompletions))
}

func TestRegistry_DoubleRegistrationPanics(t *testing.T) {
	reg := NewRegistry()
	NewClassroomMetrics(reg)
	assert.Panics(t, func() { NewClassroomMetrics(reg) })
}

func TestHandler_ServesNamespacedMetrics(t *testing.T) {
	reg := NewRegistry()
	cls := NewClassroomMetrics(reg)
	cls.ChatRelays.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "classpoll_classroom_chat_relays_total 1")
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	m := NewHTTPMetrics(NewRegistry())
	e := echo.New()
	handler := m.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for _, route := range []string{"/polls/:teacherUsername", "/polls/:teacherUsername", "/ws", "/health/ready", "/metrics"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetPath(route)
		require.NoError(t, handler(c))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/polls/:teacherUsername", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightGauge))
}
