package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Weekly timetable generation and slot management for senior classes.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, timetable views will not be cached", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	auditQueue := jobs.NewQueue(service.AuditJobType, service.AuditJobHandler(repository.NewAuditRepository(db)), jobs.QueueConfig{
		Workers:    cfg.Timetable.AuditWorkers,
		BufferSize: cfg.Timetable.AuditBufferSize,
		MaxRetries: cfg.Timetable.AuditRetries,
		RetryDelay: cfg.Timetable.AuditRetryInterval,
		Logger:     logr,
	})
	auditQueue.Start(context.Background())
	defer auditQueue.Stop()

	router := buildRouter(cfg, logr, db, redisClient, metricsSvc, service.NewAuditService(auditQueue, metricsSvc, logr))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logr.Info("server stopped")
}

func buildRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, metricsSvc *service.MetricsService, audit service.AuditEmitter) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	validate := validator.New()

	termRepo := repository.NewTermRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classSubjectRepo := repository.NewClassSubjectRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	slotRepo := repository.NewTimetableSlotRepository(db)

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metricsSvc, cfg.Timetable.CacheTTL, logr,
		cfg.Timetable.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})

	timetableSvc := service.NewTimetableService(termRepo, classRepo, subjectRepo, classSubjectRepo, assignmentRepo, slotRepo, db,
		audit, metricsSvc, cacheSvc, validate, logr, service.TimetableConfig{DefaultMaxPeriodsPerTeacher: cfg.Timetable.DefaultMaxPeriods})
	slotSvc := service.NewTimetableSlotService(termRepo, slotRepo, db, audit, metricsSvc, cacheSvc, validate, logr)
	exportSvc := service.NewTimetableExportService(termRepo, classRepo, subjectRepo, slotRepo, logr, nil, nil)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	ops := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterTimetableRoutes(r.Group(cfg.APIPrefix), authSvc,
		handler.NewTimetableHandler(timetableSvc, slotSvc, exportSvc),
		handler.NewTimetableSlotHandler(slotSvc),
	)
	return r
}
