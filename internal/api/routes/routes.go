package routes

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/argus-sec/argus/backend/internal/api/handlers"
	"github.com/argus-sec/argus/backend/internal/api/middleware"
	"github.com/argus-sec/argus/backend/internal/config"
	"github.com/argus-sec/argus/backend/internal/database"
	"github.com/argus-sec/argus/backend/internal/engine"
	"github.com/argus-sec/argus/backend/internal/metrics"
	"github.com/argus-sec/argus/backend/internal/realtime"
	"github.com/argus-sec/argus/backend/internal/services"
)

// Deps exposes the long-lived components built during route registration so
// the entrypoint can wire them to external schedulers.
type Deps struct {
	Engine *engine.Engine
	Alerts *services.AlertService
	Hub    *realtime.Hub
}

// Register migrates the schema, seeds the stock rules, builds the detection
// pipeline, and wires up all routes.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) (*Deps, error) {
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.SeedDefaultRules(db); err != nil {
		return nil, err
	}

	eng := engine.New(db)
	if err := eng.Reload(); err != nil {
		return nil, fmt.Errorf("initial rule load: %w", err)
	}

	ruleService := services.NewRuleService(db)
	threatService := services.NewThreatService(db)
	trackingService := services.NewTrackingService(db)
	alertService := services.NewAlertService(cfg.AlertURLs)
	hub := realtime.NewHub()

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	router.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Recovery(cfg.Environment == "development"))

	// The inspector sits in front of everything; it skips the admin and
	// operational surfaces internally.
	router.Use(middleware.Inspector(eng, threatService, trackingService, alertService, hub))

	router.GET("/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/ws", hub.Handle)

	// Sample endpoints protected by the inspector and rate limited.
	sampleHandler := handlers.NewSampleHandler()
	api := router.Group("/api")
	api.Use(middleware.RateLimit(cfg.RateLimitMax, time.Duration(cfg.RateLimitWindowMin)*time.Minute))
	{
		api.GET("/users", sampleHandler.Users)
		api.POST("/login", sampleHandler.Login)
		api.GET("/search", sampleHandler.Search)
		api.POST("/comment", sampleHandler.Comment)
		api.GET("/file", sampleHandler.File)
		api.POST("/exec", sampleHandler.Exec)
		api.POST("/upload", sampleHandler.Upload)
	}

	// Admin surface: rule management, threat history, statistics, dashboard.
	ruleHandler := handlers.NewRuleHandler(ruleService, eng)
	threatHandler := handlers.NewThreatHandler(threatService)
	statsHandler := handlers.NewStatsHandler(trackingService, alertService)
	dashboardHandler := handlers.NewDashboardHandler(trackingService, threatService, ruleService)

	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.AdminKeyHash))
	{
		admin.GET("/rules", ruleHandler.List)
		admin.POST("/rules", ruleHandler.Create)
		admin.GET("/rules/:id", ruleHandler.Get)
		admin.PUT("/rules/:id", ruleHandler.Update)
		admin.PATCH("/rules/:id/toggle", ruleHandler.Toggle)
		admin.DELETE("/rules/:id", ruleHandler.Delete)

		admin.GET("/threats", threatHandler.List)
		admin.GET("/threats/:id", threatHandler.Get)
		admin.DELETE("/threats", threatHandler.Clear)

		admin.GET("/statistics", statsHandler.GetStatistics)
		admin.GET("/ip-tracking", statsHandler.GetIPTracking)
		admin.GET("/dashboard", dashboardHandler.Summary)
	}

	return &Deps{Engine: eng, Alerts: alertService, Hub: hub}, nil
}
