package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/classpoll/internal/adapter/metrics"
	"github.com/pscheid92/classpoll/internal/adapter/postgres"
	"github.com/pscheid92/classpoll/internal/app"
	"github.com/pscheid92/classpoll/internal/platform/logging"
)

func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "Postgres URL (or set DATABASE_URL env)")
		username    = flag.String("username", "", "Teacher username")
		password    = flag.String("password", os.Getenv("TEACHER_PASSWORD"), "Teacher password (or set TEACHER_PASSWORD env)")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Database URL required (--database or DATABASE_URL env)")
	}
	if *username == "" || *password == "" {
		log.Fatal("Both --username and --password are required")
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	logging.InitLogger(level, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracer := postgres.NewMetricsTracer(metrics.NewDatabaseMetrics(metrics.NewRegistry()))
	pool, err := postgres.Connect(ctx, *databaseURL, tracer)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Login is not served here, so no token store is needed.
	auth := app.NewAuthService(postgres.NewTeacherRepo(pool), nil, clockwork.NewRealClock(), 0)
	teacher, err := auth.CreateTeacher(ctx, *username, *password)
	if err != nil {
		log.Fatalf("Failed to create teacher: %v", err)
	}

	slog.Info("Teacher created", "username", teacher.Username, "id", teacher.ID.String())
	fmt.Println(teacher.ID.String())
}
