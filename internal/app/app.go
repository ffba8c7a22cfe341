package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixelmuse/server/internal/module/credit"
	"github.com/pixelmuse/server/internal/module/pricing"
	"github.com/pixelmuse/server/internal/module/refill"
	"github.com/pixelmuse/server/internal/shared/config"
	"github.com/pixelmuse/server/internal/shared/database"
	"github.com/pixelmuse/server/internal/shared/events"
	"github.com/pixelmuse/server/internal/shared/logger"
	"github.com/pixelmuse/server/internal/shared/metrics"
	"github.com/pixelmuse/server/internal/shared/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     redis.UniversalClient
	Logger    *logger.Logger
	ZapLogger *zap.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	EventBus  *events.Bus

	CreditService  *credit.Service
	CreditHandler  *credit.Handler
	PricingHandler *pricing.Handler
	Runner         *refill.Runner
	RefillHandler  *refill.Handler
}

// App represents the application.
type App struct {
	deps    *Dependencies
	router  *gin.Engine
	cleanup func()
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	deps, cleanup, err := InitializeDependencies(cfg)
	if err != nil {
		return nil, fmt.Errorf("init dependencies: %w", err)
	}
	return newApp(deps, cleanup), nil
}

func newApp(deps *Dependencies, cleanup func()) *App {
	if cleanup == nil {
		cleanup = func() {}
	}
	a := &App{deps: deps, cleanup: cleanup}
	a.router = a.setupRouter()
	a.registerRoutes()
	return a
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	cfg := a.deps.Config
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.deps.Logger))
	r.Use(middleware.RequestID(a.deps.Logger))
	r.Use(middleware.Logging(a.deps.Logger))
	r.Use(middleware.Metrics(a.deps.Metrics))
	r.Use(middleware.CORS(cfg.Server.AllowOrigins))

	r.GET("/health", a.health)
	if a.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.deps.Registry, promhttp.HandlerOpts{})))
	}

	return r
}

func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, a.deps.DB); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	cfg := a.deps.Config

	// Scheduler trigger, authenticated by the shared cron secret.
	cron := a.router.Group("/api/cron")
	cron.Use(middleware.SharedSecret(cfg.Billing.CronSecret, cfg.App.IsProductionLike()))
	a.deps.RefillHandler.RegisterRoutes(cron)

	v1 := a.router.Group("/api/v1")
	a.deps.PricingHandler.RegisterRoutes(v1)

	// Ledger routes are called by trusted services only.
	internal := v1.Group("")
	internal.Use(middleware.SharedSecret(cfg.Billing.InternalToken, true))
	a.deps.CreditHandler.RegisterRoutes(internal)
}

// Start starts background components.
func (a *App) Start() {
	if a.deps.Config.Billing.RunnerEnabled {
		a.deps.Runner.Start()
	}
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Dependencies exposes the wired components to commands.
func (a *App) Dependencies() *Dependencies {
	return a.deps
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	a.deps.Runner.Stop()
	a.cleanup()
}
