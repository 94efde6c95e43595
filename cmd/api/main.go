package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/service-desk/internal/api/http"
	"github.com/spec-kit/service-desk/internal/api/http/handlers"
	"github.com/spec-kit/service-desk/internal/audit"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/config"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/observability"
	"github.com/spec-kit/service-desk/internal/persistence"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/internal/service"
	"github.com/spec-kit/service-desk/internal/tenant"
	"github.com/spec-kit/service-desk/internal/ticketnumber"
	"github.com/spec-kit/service-desk/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// storage is what the HTTP layer needs from whichever backend is configured.
type storage struct {
	requests      repository.ServiceRequestRepository
	organizations handlers.OrganizationStore
	auditWriter   audit.BatchWriter
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := newStorage(pg, cfg.Tenant, logger)

	statuses, err := cfg.Tenant.Statuses()
	if err != nil {
		logger.Fatal("invalid tenant statuses", zap.Error(err))
	}
	tenantCache := tenant.NewMemoryCache(cfg.Tenant.CacheSize)
	if redis.Enabled() {
		tenantCache = tenant.NewRedisCache(redis.Client, logger)
	}
	tenants := tenant.NewService(store.organizations, tenant.Options{
		Cache:           tenantCache,
		CacheTTL:        cfg.Tenant.CacheTTL,
		AllowedStatuses: statuses,
		Logger:          logger,
	})

	auditSink := audit.NewAsyncSink(store.auditWriter, audit.AsyncOptions{
		BufferSize:   cfg.Audit.BufferSize,
		BatchSize:    cfg.Audit.BatchSize,
		BatchTimeout: cfg.Audit.BatchTimeout,
	}, logger)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	var notificationWorker *worker.NotificationWorker
	if cfg.Notification.QueueSize > 0 {
		notificationWorker = worker.NewNotificationWorker(notifications, logger, cfg.Notification.QueueSize)
		notificationWorker.Start(dispatcher)
	} else {
		notifications.RegisterHandlers()
	}

	requestService := service.NewRequestService(service.RequestDependencies{
		Requests:            store.requests,
		Gate:                tenants,
		TicketNumbers:       ticketnumber.New(store.requests, logger),
		TicketNumberRetries: cfg.Lifecycle.TicketNumberRetries,
		Dispatcher:          dispatcher,
		Logger:              logger,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		Requests:   store.requests,
		Gate:       tenants,
		Audit:      auditSink,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:         handlers.NewMetricsHandler(metrics),
		ServiceRequests: handlers.NewServiceRequestsHandler(requestService, lifecycleService),
		Organization:    handlers.NewOrganizationHandler(store.organizations, tenants),
		AuthMiddleware:  auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if notificationWorker != nil {
		if err := notificationWorker.Stop(shutdownCtx); err != nil {
			logger.Warn("notification worker shutdown", zap.Error(err))
		}
	}
	if err := auditSink.Close(shutdownCtx); err != nil {
		logger.Warn("audit sink shutdown", zap.Error(err))
	}
	if err := tenantCache.Close(); err != nil {
		logger.Warn("tenant cache shutdown", zap.Error(err))
	}
}

// newStorage picks Postgres when a pool is available and falls back to
// process memory otherwise.
func newStorage(pg *persistence.Postgres, cfg config.TenantConfig, logger *zap.Logger) storage {
	if pg.Enabled() {
		pool := pg.PoolHandle()
		return storage{
			requests:      repository.NewServiceRequestRepository(pool),
			organizations: repository.NewOrganizationRepository(pool),
			auditWriter:   repository.NewAuditLogRepository(pool),
		}
	}

	orgs := tenant.NewMemoryProvider()
	if cfg.SeedOrganizationID != "" {
		orgs.Put(domain.Organization{
			ID:        cfg.SeedOrganizationID,
			Name:      "Development",
			Status:    domain.OrganizationStatusActive,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		})
		logger.Info("seeded in-memory organization", zap.String("organization_id", cfg.SeedOrganizationID))
	}
	return storage{
		requests:      repository.NewMemoryServiceRequestRepository(),
		organizations: orgs,
		auditWriter:   audit.NewLogWriter(logger),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
