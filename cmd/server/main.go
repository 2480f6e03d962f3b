package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/classpoll/internal/adapter/httpserver"
	"github.com/pscheid92/classpoll/internal/adapter/metrics"
	"github.com/pscheid92/classpoll/internal/adapter/postgres"
	"github.com/pscheid92/classpoll/internal/adapter/redis"
	"github.com/pscheid92/classpoll/internal/app"
	"github.com/pscheid92/classpoll/internal/broadcast"
	"github.com/pscheid92/classpoll/internal/classroom"
	"github.com/pscheid92/classpoll/internal/gateway"
	"github.com/pscheid92/classpoll/internal/platform/config"
	"github.com/pscheid92/classpoll/internal/platform/logging"
	"github.com/pscheid92/classpoll/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

type families struct {
	http        *metrics.HTTPMetrics
	websocket   *metrics.WebSocketMetrics
	classroom   *metrics.ClassroomMetrics
	persistence *metrics.PersistenceMetrics
	database    *metrics.DatabaseMetrics
	redis       *metrics.RedisMetrics
}

func setupMetrics(reg prometheus.Registerer) families {
	return families{
		http:        metrics.NewHTTPMetrics(reg),
		websocket:   metrics.NewWebSocketMetrics(reg),
		classroom:   metrics.NewClassroomMetrics(reg),
		persistence: metrics.NewPersistenceMetrics(reg),
		database:    metrics.NewDatabaseMetrics(reg),
		redis:       metrics.NewRedisMetrics(reg),
	}
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config, m *metrics.DatabaseMetrics) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.NewMetricsTracer(m))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL, m)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func healthChecks(pool *pgxpool.Pool, rdb *goredis.Client, hub *broadcast.Hub) []httpserver.HealthCheck {
	return []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		{Name: "hub", Check: func(context.Context) error {
			if hub.ClientCount() < 0 {
				return errors.New("hub is not responding")
			}
			return nil
		}},
	}
}

func runGracefulShutdown(srv *httpserver.Server, hub *broadcast.Hub, coordinator *classroom.Coordinator) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		coordinator.Wait()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	registry := metrics.NewRegistry()
	m := setupMetrics(registry)

	pool := setupDB(cfg, m.database)
	defer pool.Close()

	redisClient := setupRedis(cfg, m.redis)
	defer func() { _ = redisClient.Close() }()

	pollRepo := postgres.NewPollRepo(pool, clock, m.persistence)
	teacherRepo := postgres.NewTeacherRepo(pool)
	tokenStore := redis.NewTokenStore(redisClient)

	hub := broadcast.NewHub(clock, cfg.MaxWebSocketConnections, m.websocket)
	coordinator := classroom.NewCoordinator(pollRepo, hub, clock, classroom.Options{
		RevealCorrectAnswers: cfg.RevealCorrectAnswers,
		PersistenceTimeout:   cfg.PersistenceTimeout,
	}, m.classroom, m.persistence)

	gw := gateway.New(coordinator, hub, gateway.Config{
		AppURL:              cfg.AppURL,
		IsDevelopment:       cfg.IsDevelopment(),
		MaxConnectionsPerIP: cfg.MaxConnectionsPerIP,
	}, m.classroom)

	srv := httpserver.NewServer(cfg, httpserver.Dependencies{
		Auth:           app.NewAuthService(teacherRepo, tokenStore, clock, cfg.TeacherTokenTTL),
		Polls:          app.NewPollQueries(pollRepo),
		WebSocket:      gw,
		MetricsHandler: metrics.Handler(registry),
		HTTPMetrics:    m.http,
		HealthChecks:   healthChecks(pool, redisClient, hub),
	})

	done := runGracefulShutdown(srv, hub, coordinator)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
