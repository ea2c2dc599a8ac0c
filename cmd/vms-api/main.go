package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/scsvmv/vms-api/api/swagger"
	"github.com/scsvmv/vms-api/internal/handler"
	"github.com/scsvmv/vms-api/internal/middleware"
	"github.com/scsvmv/vms-api/internal/models"
	"github.com/scsvmv/vms-api/internal/repository"
	"github.com/scsvmv/vms-api/internal/service"
	"github.com/scsvmv/vms-api/pkg/cache"
	"github.com/scsvmv/vms-api/pkg/config"
	"github.com/scsvmv/vms-api/pkg/database"
	"github.com/scsvmv/vms-api/pkg/jobs"
	"github.com/scsvmv/vms-api/pkg/logger"
	"github.com/scsvmv/vms-api/pkg/mailer"
	corsmiddleware "github.com/scsvmv/vms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/scsvmv/vms-api/pkg/middleware/requestid"
	"github.com/scsvmv/vms-api/pkg/storage"
)

// @title SCSVMV Visitor Management API
// @version 1.0.0
// @description Visitor registration, approval and gate tracking
// @BasePath /api/v1
// @schemes http

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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The log feed cache is an optimization; the API works without it.
		logr.Warn("redis unavailable, log feed caching disabled", zap.Error(err))
		redisClient = nil
	}

	signer := storage.NewSignedURLSigner(cfg.Photos.SignedURLSecret, cfg.Photos.SignedURLTTL)
	photoStore, err := storage.NewPhotoStore(cfg.Photos.StorageDir, cfg.Photos.BaseURL, signer, cfg.Photos.MaxFileSize)
	if err != nil {
		logr.Fatal("failed to init photo storage", zap.Error(err))
	}

	validate := validator.New()

	visitorRepo := repository.NewVisitorRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	identityRepo := repository.NewIdentityRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	gate := service.NewAuthzGate(profileRepo)

	smtp := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	notifier := service.NewNotificationService(smtp, jobs.QueueConfig{
		Workers:    cfg.Mail.Workers,
		BufferSize: cfg.Mail.BufferSize,
		MaxRetries: cfg.Mail.MaxRetries,
		RetryDelay: cfg.Mail.RetryDelay,
		Logger:     logr,
	}, metricsSvc, logr)

	visitorSvc := service.NewVisitorService(visitorRepo, gate, notifier, cacheRepo, cfg.Logs.CacheTTL, metricsSvc, validate, logr)
	provisioningSvc := service.NewProvisioningService(identityRepo, profileRepo, gate, validate, logr)
	authSvc := service.NewAuthService(identityRepo, profileRepo, cfg.JWT, cfg.Security.AccessPIN, validate, logr)
	exportSvc := service.NewExportService()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier.Start(ctx)
	defer notifier.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	visitorHandler := handler.NewVisitorHandler(visitorSvc, exportSvc, photoStore)
	securityHandler := handler.NewSecurityHandler(visitorSvc)
	adminHandler := handler.NewAdminHandler(provisioningSvc, visitorSvc, exportSvc)
	photoHandler := handler.NewPhotoHandler(photoStore)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/pin-login", authHandler.LoginWithPIN)

		// Public: the registration kiosk has no account.
		api.POST("/visitors", visitorHandler.Register)
		api.GET("/photos/:token", photoHandler.Serve)

		authed := api.Group("")
		authed.Use(middleware.JWT(authSvc))
		{
			authed.GET("/auth/me", authHandler.Me)

			dept := authed.Group("")
			dept.Use(middleware.RequireRoles(models.RoleDepartmentAdmin))
			{
				dept.GET("/visitors", visitorHandler.List)
				dept.POST("/visitors/:id/approve", visitorHandler.Approve)
				dept.POST("/visitors/:id/resend", visitorHandler.Resend)
			}

			authed.GET("/visitors/:id/pass", middleware.RequireRoles(
				models.RoleDepartmentAdmin, models.RoleSecurity, models.RoleSuperAdmin), visitorHandler.Pass)

			sec := authed.Group("/security")
			sec.Use(middleware.RequireRoles(models.RoleSecurity, models.RoleSuperAdmin))
			{
				sec.GET("/visitors/:uid", securityHandler.Lookup)
				sec.POST("/visitors/:id/check-in", securityHandler.CheckIn)
				sec.POST("/visitors/:id/check-out", securityHandler.CheckOut)
			}

			admin := authed.Group("/admin")
			admin.Use(middleware.RequireRoles(models.RoleSuperAdmin))
			{
				admin.POST("/users", adminHandler.CreateUser)
				admin.GET("/users", adminHandler.ListUsers)
				admin.DELETE("/users/:id", adminHandler.DeleteUser)
				admin.GET("/logs", adminHandler.Logs)
				admin.GET("/logs/export", adminHandler.ExportLogs)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
