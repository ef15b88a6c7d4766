package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
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

	_ "github.com/noah-isme/lingo-schedule-api/api/swagger"
	"github.com/noah-isme/lingo-schedule-api/internal/handler"
	"github.com/noah-isme/lingo-schedule-api/internal/middleware"
	"github.com/noah-isme/lingo-schedule-api/internal/models"
	"github.com/noah-isme/lingo-schedule-api/internal/repository"
	"github.com/noah-isme/lingo-schedule-api/internal/service"
	"github.com/noah-isme/lingo-schedule-api/pkg/cache"
	"github.com/noah-isme/lingo-schedule-api/pkg/config"
	"github.com/noah-isme/lingo-schedule-api/pkg/database"
	"github.com/noah-isme/lingo-schedule-api/pkg/export"
	"github.com/noah-isme/lingo-schedule-api/pkg/jobs"
	"github.com/noah-isme/lingo-schedule-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lingo-schedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lingo-schedule-api/pkg/middleware/requestid"
	"github.com/noah-isme/lingo-schedule-api/pkg/realtime"
)

// @title Lingo Schedule API
// @version 1.0.0
// @description Live-class schedule selection and enrollment scheduling
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.Realtime.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache and realtime", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.AvailabilityTTL, logr, cfg.Cache.Enabled)

	var publishClient realtime.PublishClient
	if cfg.Realtime.Enabled && redisClient != nil {
		publishClient = redisClient
	}
	publisher := realtime.NewPublisher(publishClient, cfg.Realtime.ChannelPrefix, logr)

	courseRepo := repository.NewCourseRepository(db)
	periodRepo := repository.NewAcademicPeriodRepository(db)
	availabilityRepo := repository.NewTeacherAvailabilityRepository(db)
	enrollmentRepo := repository.NewEnrollmentScheduleRepository(db)

	availabilitySvc := service.NewTeacherAvailabilityService(availabilityRepo, cacheSvc, cfg.Cache.AvailabilityTTL, logr)
	sessions := service.NewScheduleSessionStore(cfg.Scheduler.SessionTTL)
	loadWorker := service.NewAvailabilityLoadWorker(sessions, availabilitySvc, publisher, metricsSvc, logr)
	loadQueue := jobs.NewQueue("availability-loader", loadWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Scheduler.LoaderWorkers,
		MaxRetries: cfg.Scheduler.LoaderRetries,
		RetryDelay: cfg.Scheduler.LoaderRetryWait,
		OnGiveUp:   loadWorker.GiveUp,
		Logger:     logr,
	})
	loadQueue.Start(ctx)
	defer loadQueue.Stop()

	selectorSvc := service.NewScheduleSelectorService(
		sessions,
		courseRepo,
		periodRepo,
		enrollmentRepo,
		loadQueue,
		publisher,
		export.NewExporter(),
		metricsSvc,
		validate,
		logr,
		service.ScheduleSelectorConfig{DefaultTimezone: cfg.Scheduler.DefaultTimezone},
	)
	go selectorSvc.RunJanitor(ctx, time.Minute)
	enrollmentSvc := service.NewEnrollmentScheduleService(selectorSvc, enrollmentRepo, metricsSvc, validate, logr, cfg.Scheduler.DefaultTimezone)

	verifier := service.NewTokenVerifier(service.TokenVerifierConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, cfg.CORS.MaxAge))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(verifier))

	courseTeachers := handler.NewCourseTeacherHandler(availabilitySvc)
	api.GET("/courses/:id/teachers", courseTeachers.List)
	api.DELETE("/courses/:id/teachers/cache", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), courseTeachers.InvalidateCache)

	if cfg.Scheduler.Enabled {
		schedulers := []models.UserRole{models.RoleStudent, models.RoleAdmin, models.RoleSuperAdmin}

		sessionHandler := handler.NewScheduleSessionHandler(selectorSvc)
		sessionRoutes := api.Group("/schedule-sessions", middleware.RequireRoles(schedulers...))
		sessionRoutes.POST("", sessionHandler.Start)
		sessionRoutes.GET("/:id", sessionHandler.Get)
		sessionRoutes.DELETE("/:id", sessionHandler.Close)
		sessionRoutes.PUT("/:id/teacher", sessionHandler.SelectTeacher)
		sessionRoutes.POST("/:id/pointer", sessionHandler.Pointer)
		sessionRoutes.POST("/:id/decision", sessionHandler.Decide)
		sessionRoutes.PUT("/:id/recurrence", sessionHandler.SetRecurrence)
		sessionRoutes.POST("/:id/week", sessionHandler.NavigateWeek)
		sessionRoutes.POST("/:id/confirm", sessionHandler.Confirm)
		sessionRoutes.GET("/:id/export", sessionHandler.Export)

		enrollmentHandler := handler.NewEnrollmentScheduleHandler(enrollmentSvc)
		enrollmentRoutes := api.Group("/enrollments", middleware.RequireRoles(schedulers...))
		enrollmentRoutes.POST("", enrollmentHandler.Create)
		enrollmentRoutes.GET("/:id/schedule", enrollmentHandler.Get)
		enrollmentRoutes.PUT("/:id/schedule", enrollmentHandler.Update)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logr.Sugar().Fatalw("server failed", "error", err)
	case <-ctx.Done():
		logr.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("could not stop server gracefully", zap.Error(err))
		_ = srv.Close()
	}
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
