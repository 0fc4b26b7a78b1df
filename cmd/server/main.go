package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/opencampus/timetable-api/api/swagger"
	"github.com/opencampus/timetable-api/internal/handler"
	"github.com/opencampus/timetable-api/internal/middleware"
	"github.com/opencampus/timetable-api/internal/repository"
	"github.com/opencampus/timetable-api/internal/service"
	"github.com/opencampus/timetable-api/pkg/cache"
	"github.com/opencampus/timetable-api/pkg/config"
	"github.com/opencampus/timetable-api/pkg/database"
	"github.com/opencampus/timetable-api/pkg/logger"
	corsmiddleware "github.com/opencampus/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/opencampus/timetable-api/pkg/middleware/requestid"
)

// @title Timetable Booking API
// @version 1.0.0
// @description Conflict-checked booking of classrooms, professors and batches
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, timetable cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TimetableTTL, logr, cfg.Cache.Enabled)

	validate := validator.New()
	bookingRepo := repository.NewBookingRepository(db)
	bookingSvc := service.NewBookingService(bookingRepo, cacheSvc, metricsSvc, validate, logr, cfg.Booking.TxTimeout)
	timetableSvc := service.NewTimetableService(bookingRepo, cacheSvc, logr)

	bookingHandler := handler.NewBookingHandler(bookingSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, cfg.Exports.Enabled)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/bookings/extra", bookingHandler.BookExtra)
	api.GET("/bookings", bookingHandler.List)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.GET("/classrooms/:id/timetable", timetableHandler.ByClassroom)
	api.GET("/classrooms/:id/timetable/export", timetableHandler.ExportClassroom)
	api.GET("/professors/:id/timetable", timetableHandler.ByProfessor)
	api.GET("/professors/:id/timetable/export", timetableHandler.ExportProfessor)
	api.GET("/batches/:id/timetable", timetableHandler.ByBatch)
	api.GET("/batches/:id/timetable/export", timetableHandler.ExportBatch)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
