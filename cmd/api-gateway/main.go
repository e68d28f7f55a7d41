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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-timetable-api/api/swagger"
	"github.com/noah-isme/campus-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-timetable-api/internal/middleware"
	"github.com/noah-isme/campus-timetable-api/internal/repository"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/pkg/cache"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
	"github.com/noah-isme/campus-timetable-api/pkg/jobs"
	"github.com/noah-isme/campus-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/requestid"
)

// @title Campus Timetable API
// @version 1.0.0
// @description Slot validation, assignment and grid management for course-semester timetables.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	// Redis backs the catalog cache and change notifications; the API keeps
	// serving without it.
	var redisClient redis.UniversalClient
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, caching and notifications disabled", zap.Error(err))
	} else {
		redisClient = client
		defer client.Close()
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient),
		metricsSvc,
		cfg.CatalogCache.TTL,
		logr,
		cfg.CatalogCache.Enabled && redisClient != nil,
	)
	catalogSvc := service.NewCatalogService(repository.NewCatalogRepository(db), cacheSvc, cfg.CatalogCache.TTL, logr)
	if err := catalogSvc.Invalidate(context.Background()); err != nil {
		logr.Warn("failed to flush catalog cache", zap.Error(err))
	}
	slotRepo := repository.NewTimetableSlotRepository(db)

	checker := service.NewConflictValidator(catalogSvc, slotRepo, service.ValidatorOptions{
		StrictRoomTypeMatching: cfg.Timetable.StrictRoomTypeMatching,
		HighLoadThreshold:      cfg.Timetable.HighLoadThreshold,
	}, logr)
	resolver := service.NewFacultyResolver(catalogSvc, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier service.Notifier = service.NopNotifier{}
	if cfg.Notifications.Enabled && redisClient != nil {
		queued := service.NewQueueNotifier(
			repository.NewNotificationRepository(redisClient, cfg.Notifications.Channel),
			metricsSvc,
			jobs.QueueConfig{
				Workers:    cfg.Notifications.Workers,
				MaxRetries: cfg.Notifications.Retries,
				Logger:     logr,
			},
		)
		queued.Start(rootCtx)
		defer queued.Stop()
		notifier = queued
	}

	timetableSvc := service.NewTimetableService(slotRepo, db, catalogSvc, checker, resolver, notifier, metricsSvc, validate, logr)
	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(internalmiddleware.Metrics(metricsSvc))
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.RegisterTimetableRoutes(api, handler.NewTimetableHandler(timetableSvc), tokens, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
