package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geosurvey/internal/adapters/http"
	"github.com/samirrijal/geosurvey/internal/adapters/memory"
	natsadapter "github.com/samirrijal/geosurvey/internal/adapters/nats"
	"github.com/samirrijal/geosurvey/internal/adapters/postgres"
	"github.com/samirrijal/geosurvey/internal/adapters/storage"
	"github.com/samirrijal/geosurvey/internal/adapters/valkey"
	"github.com/samirrijal/geosurvey/internal/core/ports"
	"github.com/samirrijal/geosurvey/internal/core/usecases"
	"github.com/samirrijal/geosurvey/internal/pkg/config"
	"github.com/samirrijal/geosurvey/internal/pkg/logging"
	"github.com/samirrijal/geosurvey/internal/pkg/metrics"
	"github.com/samirrijal/geosurvey/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geosurvey-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Per-user submission lock: valkey when reachable, in-process otherwise
	var (
		locker ports.SubmissionLocker
		pinger http.Pinger
	)
	vl, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.LockTTL)
	if err != nil {
		slog.Warn("valkey unavailable, using in-process submission lock", "error", err)
		locker = memory.NewLocker()
	} else {
		defer vl.Close()
		locker, pinger = vl.WithFallback(memory.NewLocker()), vl
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Drain()
	}

	// File storage for voice recordings
	files, err := storage.NewLocalStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatalf("uploads dir: %v", err)
	}

	// Repos
	userRepo := postgres.NewUserRepo(db)
	surveyRepo := postgres.NewSurveyRepo(db)
	responseRepo := postgres.NewResponseRepo(db)
	uploadRepo := postgres.NewUploadRepo(db)

	deps := &http.Dependencies{
		Users:       usecases.NewUserService(userRepo),
		Surveys:     usecases.NewSurveyService(surveyRepo, responseRepo),
		Submissions: usecases.NewSubmissionService(responseRepo, locker, publisher),
		Reports:     usecases.NewReportService(surveyRepo, responseRepo, publisher),
		Uploads:     usecases.NewUploadService(uploadRepo, responseRepo, files),
		NATS:        natsConn,
		DB:          db,
		Locker:      pinger,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "GeoSurvey API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats refreshes the database pool gauges until ctx is done.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if st := db.Stat(); st != nil {
				metrics.UpdateDBPoolMetrics(st)
			}
		}
	}
}
