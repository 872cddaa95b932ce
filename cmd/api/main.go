package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/citycare/issue-service/internal/api/http"
	"github.com/citycare/issue-service/internal/api/http/handlers"
	"github.com/citycare/issue-service/internal/auth"
	"github.com/citycare/issue-service/internal/cache"
	"github.com/citycare/issue-service/internal/config"
	"github.com/citycare/issue-service/internal/events"
	"github.com/citycare/issue-service/internal/notify"
	"github.com/citycare/issue-service/internal/observability"
	"github.com/citycare/issue-service/internal/persistence"
	"github.com/citycare/issue-service/internal/repository"
	"github.com/citycare/issue-service/internal/service"
	"github.com/citycare/issue-service/internal/worker"
)

const (
	notificationWorkers = 4
	notificationBuffer  = 256
	shutdownTimeout     = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	stores := repository.NewStores(pg.PoolHandle())
	directory := cache.NewOfficerDirectory(stores.Officers, redis.Client, cfg.Engine.OfficerCacheTTL(), logger)
	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CitizenRepo: stores.Citizens,
		OfficerRepo: stores.Officers,
	})
	officerService := service.NewOfficerService(*cfg, service.OfficerDependencies{
		OfficerRepo: stores.Officers,
		Cache:       directory,
		Logger:      logger,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:    stores.Issues,
		CitizenRepo:  stores.Citizens,
		Dispatcher:   dispatcher,
		Logger:       logger,
		ReportPoints: cfg.Gamification.ReportPoints,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		IssueRepo:          stores.Issues,
		Officers:           directory,
		Dispatcher:         dispatcher,
		Logger:             logger,
		StoreTimeout:       cfg.Engine.StoreTimeout(),
		MaxConflictRetries: cfg.Engine.MaxConflictRetries,
	})

	publishers := map[string]notify.Publisher{}
	if redis.Enabled() {
		publishers["redis"] = notify.NewRedisPublisher(redis.Client, cfg.Notification.RedisChannel)
	}
	if cfg.Notification.RabbitURL != "" {
		rabbit, err := notify.NewRabbitPublisher(ctx, cfg.Notification.RabbitURL, cfg.Notification.RabbitExchange, logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable; event fan-out disabled", zap.Error(err))
		} else {
			defer rabbit.Close() //nolint:errcheck
			publishers["rabbitmq"] = rabbit
		}
	}
	var mailer notify.Mailer
	smtpMailer, err := notify.NewSMTPMailer(cfg.Notification)
	switch {
	case err == nil:
		mailer = smtpMailer
	case !errors.Is(err, notify.ErrMailDisabled):
		logger.Warn("smtp mailer disabled", zap.Error(err))
	}

	notificationService := service.NewNotificationService(cfg.Notification, service.NotificationDependencies{
		Dispatcher: dispatcher,
		Logger:     logger,
		Officers:   directory,
		Mailer:     mailer,
		Publishers: publishers,
	})
	notificationWorker := worker.NewNotificationWorker(notificationService, logger, notificationWorkers, notificationBuffer)
	worker.StartNotificationWorker(ctx, notificationService, notificationWorker)

	metrics := observability.NewMetrics()
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), stores.Citizens, stores.Officers)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Public:         handlers.NewPublicHandler(issueService),
		Issues:         handlers.NewIssuesHandler(issueService, lifecycleService),
		StaffIssues:    handlers.NewStaffIssuesHandler(issueService, lifecycleService),
		Officers:       handlers.NewOfficersHandler(officerService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.App.Addr()),
			zap.Bool("in_memory_store", stores.InMemory))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := notificationWorker.Stop(shutdownCtx); err != nil {
		logger.Warn("notification worker did not drain", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
