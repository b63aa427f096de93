package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/dpaiva-dev/frequencia-api/api/swagger"
	"github.com/dpaiva-dev/frequencia-api/internal/handler"
	"github.com/dpaiva-dev/frequencia-api/internal/middleware"
	"github.com/dpaiva-dev/frequencia-api/internal/models"
	"github.com/dpaiva-dev/frequencia-api/internal/repository"
	"github.com/dpaiva-dev/frequencia-api/internal/service"
	"github.com/dpaiva-dev/frequencia-api/pkg/cache"
	"github.com/dpaiva-dev/frequencia-api/pkg/config"
	"github.com/dpaiva-dev/frequencia-api/pkg/database"
	"github.com/dpaiva-dev/frequencia-api/pkg/logger"
	corsmiddleware "github.com/dpaiva-dev/frequencia-api/pkg/middleware/cors"
	reqidmiddleware "github.com/dpaiva-dev/frequencia-api/pkg/middleware/requestid"
	"github.com/dpaiva-dev/frequencia-api/pkg/tablestore"
)

// @title Frequencia API
// @version 1.0.0
// @description School attendance tracking and analytics service
// @BasePath /
// @schemes http

func main() {
	seed := flag.Bool("seed", false, "seed demo users, classes and attendance, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	store, err := openStore(cfg)
	if err != nil {
		logr.Sugar().Fatalw("failed to open storage backend", "backend", cfg.Storage.Backend, "error", err)
	}

	if *seed {
		if err := seedData(context.Background(), store, logr); err != nil {
			logr.Sugar().Fatalw("seeding failed", "error", err)
		}
		logr.Info("seeding complete")
		return
	}

	rosterRepo := repository.NewRosterRepository(store)
	attendanceRepo := repository.NewAttendanceRepository(store, rosterRepo)
	userRepo := repository.NewUserRepository(store)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Analytics.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, analytics cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, true)
		}
	}

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      "frequencia-api",
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, rosterRepo, validate, logr)
	analyticsSvc := service.NewAnalyticsService(attendanceRepo, rosterRepo, cacheSvc, metricsSvc, logr)
	rosterSvc := service.NewRosterService(rosterRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	exportSvc := service.NewExportService(attendanceRepo, rosterRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	userHandler := handler.NewUserHandler(userSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if _, err := store.ReadTable(ctx, "classes"); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/classes", rosterHandler.ListClasses)
	authed.POST("/classes", middleware.RequireRoles(), rosterHandler.CreateClass)
	authed.DELETE("/classes/:classID", middleware.RequireRoles(), rosterHandler.DeleteClass)

	authed.GET("/students", rosterHandler.ListStudents)
	authed.POST("/students", middleware.RequireRoles(models.RoleCoordinator), rosterHandler.CreateStudent)
	authed.PUT("/students/:studentID/class", middleware.RequireRoles(models.RoleCoordinator), rosterHandler.MoveStudent)
	authed.DELETE("/students/:studentID", middleware.RequireRoles(models.RoleCoordinator), rosterHandler.DeleteStudent)

	authed.GET("/classes/:classID/attendance", middleware.RequireRoles(models.RoleTeacher, models.RoleCoordinator), attendanceHandler.Sheet)
	authed.PUT("/classes/:classID/attendance", middleware.RequireRoles(models.RoleTeacher), attendanceHandler.Submit)
	authed.GET("/attendance", attendanceHandler.Records)

	analytics := authed.Group("/analytics", middleware.RequireRoles(models.RoleCoordinator, models.RoleAgent))
	analytics.GET("/presence-rate", analyticsHandler.PresenceRate)
	analytics.GET("/ranking", analyticsHandler.Ranking)
	analytics.GET("/justifications", analyticsHandler.Justifications)
	analytics.GET("/teacher-activity", middleware.RequireRoles(models.RoleCoordinator), analyticsHandler.TeacherActivity)
	analytics.GET("/trend", analyticsHandler.Trend)
	analytics.GET("/coverage", analyticsHandler.Coverage)
	analytics.GET("/system", middleware.RequireRoles(), analyticsHandler.SystemMetrics)

	exports := authed.Group("/exports")
	exports.GET("/attendance.csv", middleware.RequireRoles(models.RoleAgent, models.RoleCoordinator), exportHandler.MonthlyCSV)
	exports.GET("/absences.pdf", middleware.RequireRoles(models.RoleCoordinator), exportHandler.AbsenceReportPDF)

	authed.GET("/users", middleware.RequireRoles(), userHandler.List)
	authed.POST("/users", middleware.RequireRoles(), userHandler.Create)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "storage", cfg.Storage.Backend)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func openStore(cfg *config.Config) (tablestore.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		return tablestore.NewPostgresStore(db)
	case config.StorageBackendCSV:
		return tablestore.NewCSVStore(cfg.Storage.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
