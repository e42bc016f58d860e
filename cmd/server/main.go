package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeclock/internal/attendance"
	attendancestore "timeclock/internal/attendance/store"
	"timeclock/internal/auth"
	"timeclock/internal/directory"
	directorystore "timeclock/internal/directory/store"
	"timeclock/internal/events"
	"timeclock/internal/evidence"
	"timeclock/internal/logbook"
	"timeclock/internal/platform/config"
	"timeclock/internal/platform/httpserver"
	"timeclock/internal/platform/logger"
	"timeclock/internal/platform/metrics"
	"timeclock/internal/platform/postgres"
	"timeclock/internal/platform/redis"
	"timeclock/internal/storeaudit"
	auditstore "timeclock/internal/storeaudit/store"
	httptransport "timeclock/internal/transport/http"
	"timeclock/internal/verify"
	"timeclock/internal/vision"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Stores: Postgres when configured, seeded memory otherwise.
	var (
		userStore    directory.UserStore
		storeStore   directory.StoreStore
		timeLogStore logbook.TimeLogStore
		auditStore   storeaudit.AuditStore
	)
	if db != nil {
		userStore = directorystore.NewPostgresUserStore(db)
		storeStore = directorystore.NewPostgresStoreStore(db)
		timeLogStore = attendancestore.NewPostgresTimeLogStore(db)
		auditStore = auditstore.NewPostgresAuditStore(db)
	} else {
		log.Warn("no DATABASE_URL configured, using in-memory stores with seed data")
		userStore = directorystore.NewMemoryUserStore()
		storeStore = directorystore.NewMemoryStoreStore()
		timeLogStore = attendancestore.NewMemoryTimeLogStore()
		auditStore = auditstore.NewMemoryAuditStore()
	}

	dir := directory.NewService(userStore, storeStore, log)
	if db == nil {
		if err := dir.Seed(ctx); err != nil {
			log.Error("seeding directory failed", "error", err)
			os.Exit(1)
		}
	} else if err := dir.Refresh(ctx); err != nil {
		log.Error("initial directory refresh failed", "error", err)
		os.Exit(1)
	}

	refresher, err := directory.NewRefresher(dir, cfg.DirectoryRefreshEvery, log)
	if err != nil {
		log.Error("directory refresher setup failed", "error", err)
		os.Exit(1)
	}
	refresher.Start()
	defer refresher.Stop()

	book := logbook.New(timeLogStore, log)
	if err := book.Refresh(ctx); err != nil {
		log.Error("initial logbook load failed", "error", err)
		os.Exit(1)
	}

	var sessionStore auth.SessionStore
	if redisClient != nil {
		sessionStore = auth.NewRedisSessionStore(redisClient)
	} else {
		sessionStore = auth.NewMemorySessionStore()
	}
	authSvc := auth.NewService(dir, auth.NewTokenIssuer(cfg.JWTSigningKey, auth.DefaultSessionTTL), sessionStore, log)

	m := metrics.New()

	visionClient := vision.New(cfg.Vision)
	if visionClient == nil {
		log.Warn("no VISION_ENDPOINT configured, verification will report technical failures")
	}
	verifier := verify.NewService(visionClient, log, m)
	analyzer := storeaudit.NewAnalyzer(visionClient)

	var uploader evidence.Uploader
	if cfg.Storage.Endpoint != "" {
		uploader = evidence.NewHTTPUploader(cfg.Storage)
	} else {
		log.Warn("no STORAGE_ENDPOINT configured, evidence photos stay inline in logs")
		uploader = evidence.NewMemoryUploader()
	}

	publisher, err := events.NewPublisher(cfg.Kafka, log)
	if err != nil {
		log.Error("kafka publisher setup failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	audits := storeaudit.NewService(auditStore, dir, analyzer, uploader, log)

	sessions := httptransport.NewSessionManager(func(locator attendance.Locator, camera attendance.Camera) *attendance.Flow {
		return attendance.NewFlow(attendance.Deps{
			Credentials: authSvc,
			Stores:      dir,
			Logs:        book,
			Verifier:    verifier,
			Evidence:    uploader,
			Locator:     locator,
			Camera:      camera,
			Events:      publisher,
			Logger:      log,
			Metrics:     m,
		}, attendance.Config{})
	})

	router := httptransport.NewRouter(
		httptransport.NewFlowHandler(sessions, authSvc, dir, log),
		httptransport.NewAdminHandler(dir, book, audits, authSvc, cfg.AdminToken, log),
		httptransport.NewAuditHandler(audits, authSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("timeclock server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
