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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/jobdrop-api/api/swagger"
	"github.com/noah-isme/jobdrop-api/internal/handler"
	"github.com/noah-isme/jobdrop-api/internal/middleware"
	"github.com/noah-isme/jobdrop-api/internal/models"
	"github.com/noah-isme/jobdrop-api/internal/repository"
	"github.com/noah-isme/jobdrop-api/internal/service"
	"github.com/noah-isme/jobdrop-api/pkg/broker"
	"github.com/noah-isme/jobdrop-api/pkg/cache"
	"github.com/noah-isme/jobdrop-api/pkg/config"
	"github.com/noah-isme/jobdrop-api/pkg/database"
	"github.com/noah-isme/jobdrop-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/jobdrop-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/jobdrop-api/pkg/middleware/requestid"
	"github.com/noah-isme/jobdrop-api/pkg/tracing"
)

// @title Job Drop Portal API
// @version 1.0.0
// @description Job drops and profile changes reviewed by super admins
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, cfg.Tracing)
	if err != nil {
		logr.Fatal("failed to init tracing", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, summary cache disabled", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	jobRepo := repository.NewJobRepository(db)
	profileRepo := repository.NewProfileRequestRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)

	var cacheRepo *repository.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}
	var cacheStore service.CacheRepository
	if cacheRepo != nil {
		cacheStore = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheStore, metrics, cfg.Workflow.SummaryCacheTTL, logr.Named("cache"), cacheRepo != nil)

	eventOpts := []service.ApprovalEventsOption{service.WithEventMetrics(metrics)}
	if cfg.RabbitMQ.Enabled {
		publisher, err := broker.NewPublisher(cfg.RabbitMQ, logr)
		if err != nil {
			logr.Warn("rabbitmq unavailable, approval events stay local", zap.Error(err))
		} else {
			defer publisher.Close()
			eventOpts = append(eventOpts, service.WithEventPublisher(publisher))
		}
	}
	events := service.NewApprovalEvents(userRepo, cacheSvc, cfg.Events, logr.Named("events"), eventOpts...)
	events.Start(ctx)

	engine := service.NewApprovalEngine(userRepo, logr.Named("approval"),
		service.WithApprovalStore(models.EntityJob, jobRepo),
		service.WithApprovalStore(models.EntityProfileRequest, profileRepo),
		service.WithApprovalStore(models.EntityAccount, userRepo),
		service.WithApprovalMetrics(metrics),
	)

	authSvc := service.NewAuthService(userRepo, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	accountSvc := service.NewAccountService(userRepo, engine, validate, logr.Named("accounts"), service.WithAccountEvents(events))
	jobSvc := service.NewJobService(jobRepo, holidayRepo, engine, validate, logr.Named("jobs"), service.WithJobEvents(events))
	profileSvc := service.NewProfileRequestService(profileRepo, userRepo, engine, validate, logr.Named("profile_requests"),
		service.WithProfileEvents(events),
		service.WithProfileAutoApply(cfg.Workflow.ProfileAutoApply),
		service.WithProfileMetrics(metrics),
	)
	holidaySvc := service.NewHolidayService(holidayRepo, jobRepo, validate, logr.Named("holidays"))
	summarySvc := service.NewSummaryService(jobRepo, profileRepo, userRepo, cacheSvc, cfg.Workflow.SummaryCacheTTL, logr.Named("summary"))

	readiness := map[string]handler.Pinger{"postgres": db}
	if cacheRepo != nil {
		readiness["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Observe(metrics))

	registerRoutes(r, cfg, routeHandlers{
		auth:     handler.NewAuthHandler(authSvc, accountSvc),
		accounts: handler.NewAccountHandler(accountSvc),
		jobs:     handler.NewJobHandler(jobSvc),
		profiles: handler.NewProfileRequestHandler(profileSvc),
		holidays: handler.NewHolidayHandler(holidaySvc),
		summary:  handler.NewSummaryHandler(summarySvc),
		metrics:  handler.NewMetricsHandler(metrics, readiness),
	}, authSvc)

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

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown", zap.Error(err))
	}
	events.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logr.Warn("tracing shutdown", zap.Error(err))
	}
}

type routeHandlers struct {
	auth     *handler.AuthHandler
	accounts *handler.AccountHandler
	jobs     *handler.JobHandler
	profiles *handler.ProfileRequestHandler
	holidays *handler.HolidayHandler
	summary  *handler.SummaryHandler
	metrics  *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h routeHandlers, tokens middleware.TokenValidator) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/register", h.auth.Register)
	api.POST("/auth/login", h.auth.Login)
	api.POST("/auth/refresh", h.auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))
	superAdmin := middleware.RequireRoles(models.RoleSuperAdmin)
	anyRole := middleware.RequireRoles(models.RoleMarketing, models.RoleSuperAdmin)

	secured.POST("/auth/logout", h.auth.Logout)
	secured.GET("/me", h.accounts.Me)
	secured.GET("/summary", h.summary.Get)

	jobs := secured.Group("/jobs")
	jobs.GET("", anyRole, h.jobs.List)
	jobs.GET("/:id", anyRole, h.jobs.Get)
	jobs.POST("", middleware.RequireRoles(models.RoleMarketing), h.jobs.Submit)
	jobs.POST("/:id/decision", superAdmin, h.jobs.Decide)
	jobs.DELETE("/:id", superAdmin, h.jobs.Delete)
	jobs.POST("/:id/restore", superAdmin, h.jobs.Restore)

	profiles := secured.Group("/profile-requests")
	profiles.GET("", h.profiles.List)
	profiles.POST("", h.profiles.Submit)
	profiles.GET("/:id", h.profiles.Get)
	profiles.POST("/:id/decision", superAdmin, h.profiles.Decide)
	profiles.POST("/:id/apply", superAdmin, h.profiles.Apply)

	users := secured.Group("/users", superAdmin)
	users.GET("", h.accounts.List)
	users.POST("/:id/decision", h.accounts.Decide)

	holidays := secured.Group("/holidays")
	holidays.GET("", h.holidays.List)
	holidays.POST("", superAdmin, h.holidays.Create)
	holidays.DELETE("/:id", superAdmin, h.holidays.Delete)
}
