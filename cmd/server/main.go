package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dashboardapp "github.com/corebank/backend/internal/application/dashboard"
	reconapp "github.com/corebank/backend/internal/application/reconciliation"
	"github.com/corebank/backend/internal/domain/reconciliation"
	"github.com/corebank/backend/internal/infrastructure/accounting"
	"github.com/corebank/backend/internal/infrastructure/audit"
	"github.com/corebank/backend/internal/infrastructure/cache"
	"github.com/corebank/backend/internal/infrastructure/config"
	"github.com/corebank/backend/internal/infrastructure/logger"
	"github.com/corebank/backend/internal/infrastructure/metrics"
	"github.com/corebank/backend/internal/infrastructure/persistence"
	"github.com/corebank/backend/internal/interfaces/http/handler"
	"github.com/corebank/backend/internal/interfaces/http/middleware"
	"github.com/corebank/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	log.Info("Starting server",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Database; debug builds echo SQL
	var db *persistence.Database
	if cfg.Log.Level == "debug" {
		db, err = persistence.NewDatabaseWithLogger(&cfg.Database, gormlogger.Info)
	} else {
		db, err = persistence.NewDatabase(&cfg.Database)
	}
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Metrics collectors
	reconMetrics := metrics.NewReconciliationMetrics()
	dashMetrics := metrics.NewDashboardMetrics()

	// Repositories
	envelopeRepo := persistence.NewGormEnvelopeRepository(db.DB)
	aggregateRepo := persistence.NewGormAggregateRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)

	// Async audit trail
	auditRecorder := audit.NewRecorder(auditRepo, cfg.Audit.BufferSize, dashMetrics, log)
	auditRecorder.Start()
	defer auditRecorder.Stop()

	// Dashboard cache (redis with in-memory fallback)
	aggregateCache := cache.NewAggregateCache(cfg, log)

	// Downstream accounting ledger client
	ledgerClient := accounting.NewClient(cfg.Accounting, log)

	// Application services
	reconService := reconapp.NewService(envelopeRepo, log)
	aggregationService := dashboardapp.NewAggregationService(aggregateRepo, aggregateCache, auditRecorder, dashMetrics, log)
	queryService := dashboardapp.NewQueryService(aggregateRepo, aggregateCache, log)

	// Replay scheduler
	var scheduler *reconapp.ReplayScheduler
	if cfg.Reconciliation.Enabled {
		scheduler = reconapp.NewReplayScheduler(
			envelopeRepo,
			ledgerClient,
			reconciliation.DefaultCommandRegistry(),
			ledgerClient,
			auditRecorder,
			reconMetrics,
			reconapp.SchedulerConfig{
				BatchSize:       cfg.Reconciliation.BatchSize,
				PollInterval:    cfg.Reconciliation.PollInterval,
				DispatchTimeout: cfg.Reconciliation.DispatchTimeout,
			},
			log,
		)
		if err := scheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start replay scheduler", zap.Error(err))
		}
		log.Info("Replay scheduler started",
			zap.Int("batch_size", cfg.Reconciliation.BatchSize),
			zap.Duration("poll_interval", cfg.Reconciliation.PollInterval),
		)
	}

	// HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	r := router.New(log, router.WithAPIVersion("v1"))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := r.Engine().SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	r.Register(handler.NewDashboardHandler(aggregationService, queryService))
	r.Register(handler.NewReconciliationHandler(reconService))
	r.Setup(db, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        r.Engine(),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Stop(ctx); err != nil {
			log.Warn("Replay scheduler did not stop cleanly", zap.Error(err))
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
