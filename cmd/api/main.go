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

	httptransport "github.com/spec-kit/sentiment-watchdog/internal/api/http"
	"github.com/spec-kit/sentiment-watchdog/internal/api/http/handlers"
	"github.com/spec-kit/sentiment-watchdog/internal/auth"
	"github.com/spec-kit/sentiment-watchdog/internal/classifier"
	"github.com/spec-kit/sentiment-watchdog/internal/config"
	"github.com/spec-kit/sentiment-watchdog/internal/events"
	"github.com/spec-kit/sentiment-watchdog/internal/observability"
	"github.com/spec-kit/sentiment-watchdog/internal/persistence"
	"github.com/spec-kit/sentiment-watchdog/internal/repository"
	"github.com/spec-kit/sentiment-watchdog/internal/service"
	"github.com/spec-kit/sentiment-watchdog/internal/worker"
)

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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var ticketRepo repository.TicketRepository
	if pool := pg.PoolHandle(); pool != nil {
		ticketRepo = repository.NewPostgresTicketRepository(pool)
	} else {
		ticketRepo = repository.NewMemoryTicketRepository()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	if sink := events.NewKafkaSink(cfg.Kafka, logger); sink != nil {
		sink.Register(dispatcher)
		defer sink.Close() //nolint:errcheck
		logger.Info("kafka event sink enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification, nil)
	notifications.RegisterHandlers()

	var lexicon *classifier.Lexicon
	if cfg.Classifier.LexiconPath != "" {
		lexicon, err = classifier.LoadLexicon(cfg.Classifier.LexiconPath)
		if err != nil {
			logger.Fatal("failed to load lexicon", zap.Error(err))
		}
	}
	classifierService := classifier.NewService(
		classifier.NewAnthropicTransport(cfg.Classifier),
		classifier.DefaultRetryPolicy(cfg.Classifier.RetryMaxAttempts,
			time.Duration(cfg.Classifier.RetryBaseDelayMS)*time.Millisecond),
		lexicon,
		logger,
	)

	ingestion := service.NewIngestionService(service.IngestionDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	dashboard := service.NewDashboardService(service.DashboardDependencies{
		TicketRepo: ticketRepo,
		Cache:      redis.Client,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	processor := worker.New(cfg.Worker, worker.Dependencies{
		Repo:       ticketRepo,
		Classifier: classifierService,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		processor.Run(ctx)
	}()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens, cfg.Auth)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Webhooks:       handlers.NewWebhookHandler(ingestion),
		Dashboard:      handlers.NewDashboardHandler(dashboard, ingestion),
		Auth:           handlers.NewAuthHandler(tokens, cfg.Auth),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	<-workerDone
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
