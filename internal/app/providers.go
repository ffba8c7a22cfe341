package app

import (
	"context"

	"github.com/google/wire"
	"github.com/pixelmuse/server/internal/module/credit"
	"github.com/pixelmuse/server/internal/module/pricing"
	"github.com/pixelmuse/server/internal/module/refill"
	"github.com/pixelmuse/server/internal/module/subscription"
	"github.com/pixelmuse/server/internal/shared/cache"
	"github.com/pixelmuse/server/internal/shared/config"
	"github.com/pixelmuse/server/internal/shared/database"
	"github.com/pixelmuse/server/internal/shared/events"
	"github.com/pixelmuse/server/internal/shared/logger"
	"github.com/pixelmuse/server/internal/shared/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideZapLogger,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideRegistry,
	ProvideMetrics,
)

// ProvideLogger creates the slog logger used by HTTP middleware.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideZapLogger creates the zap logger injected into services.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.NewZapLogger(&logger.ZapConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// ProvideDatabase creates a database connection.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}

// ProvideRedisClient creates a Redis client. Redis only backs the balance
// cache, so an unreachable server is logged and the cache disabled.
func ProvideRedisClient(cfg *config.Config, zapLog *zap.Logger) (redis.UniversalClient, func()) {
	if !cfg.Redis.Enabled() {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		zapLog.Warn("redis unavailable, balance cache disabled", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = cache.Close(client) }
}

// ProvideRegistry creates the prometheus registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics registers the application metrics. Returns nil when
// metrics are disabled; every recorder is nil-safe.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New(cfg.Metrics.Namespace, reg)
}

// ===== Module Providers =====

// ModuleSet provides the credit, pricing and refill modules.
var ModuleSet = wire.NewSet(
	ProvideBalanceCache,
	ProvideCreditService,
	wire.Bind(new(credit.ServiceInterface), new(*credit.Service)),
	ProvideEventBus,
	wire.Bind(new(events.Publisher), new(*events.Bus)),
	credit.NewHandler,
	pricing.NewHandler,
	ProvideReportArchiver,
	ProvideSweeper,
	ProvideRunner,
	wire.Bind(new(refill.Trigger), new(*refill.Runner)),
	refill.NewHandler,
)

// ProvideBalanceCache wraps the Redis client, or returns nil without one.
func ProvideBalanceCache(client redis.UniversalClient) credit.BalanceCache {
	if client == nil {
		return nil
	}
	return credit.NewRedisBalanceCache(client)
}

// ProvideCreditService creates the ledger service.
func ProvideCreditService(cfg *config.Config, db *gorm.DB, balanceCache credit.BalanceCache, m *metrics.Metrics, zapLog *zap.Logger) *credit.Service {
	return credit.NewService(credit.NewRepository(db), balanceCache, m, cfg.Billing.BalanceCacheTTL, zapLog.Named("credit"))
}

// ProvideEventBus creates the in-process event bus with the domain handlers
// registered. Refill grants bypass the credit service, so its cached balances
// are dropped on CreditsGranted.
func ProvideEventBus(zapLog *zap.Logger, creditService *credit.Service) *events.Bus {
	bus := events.NewBus(zapLog)
	bus.Register(credit.NewEventHandler(creditService, zapLog.Named("credit")))
	return bus
}

// ProvideReportArchiver creates the S3 report archiver when storage is
// configured.
func ProvideReportArchiver(cfg *config.Config, zapLog *zap.Logger) refill.ReportArchiver {
	if !cfg.Storage.Enabled() {
		return nil
	}
	archiver, err := refill.NewS3Archiver(context.Background(), &cfg.Storage)
	if err != nil {
		zapLog.Warn("sweep report archiving disabled", zap.Error(err))
		return nil
	}
	return archiver
}

// ProvideSweeper creates the refill sweeper.
func ProvideSweeper(cfg *config.Config, db *gorm.DB, publisher events.Publisher, archiver refill.ReportArchiver, m *metrics.Metrics, zapLog *zap.Logger) *refill.Sweeper {
	return refill.NewSweeper(refill.NewStore(db), refill.Config{
		GrantValidity:  cfg.Billing.GrantValidity,
		ActivationDays: cfg.Billing.ActivationDays,
		Concurrency:    cfg.Billing.SweepConcurrency,
	}, publisher, archiver, m, zapLog.Named("refill"))
}

// ProvideRunner creates the sweep runner. The ticker only starts when
// billing.runner_enabled is set.
func ProvideRunner(cfg *config.Config, sweeper *refill.Sweeper, zapLog *zap.Logger) *refill.Runner {
	interval := cfg.Billing.SweepInterval
	if !cfg.Billing.RunnerEnabled {
		interval = 0
	}
	return refill.NewRunner(sweeper, interval, zapLog.Named("refill"))
}

// Models lists every persisted model, in migration order.
func Models() []any {
	return []any{
		&subscription.Subscription{},
		&credit.CreditEntry{},
	}
}
