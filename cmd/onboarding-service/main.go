// cmd/onboarding-service/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"customer-onboarding/internal/api"
	"customer-onboarding/internal/common/aws"
	"customer-onboarding/internal/common/camunda"
	"customer-onboarding/internal/common/config"
	"customer-onboarding/internal/common/database"
	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/common/observability"
	"customer-onboarding/internal/customer"
	"customer-onboarding/internal/customer/notify"
	"customer-onboarding/internal/fraudmock"
	"customer-onboarding/internal/risk/assessment"
	"customer-onboarding/internal/risk/audit"
	"customer-onboarding/internal/risk/blacklist"
	"customer-onboarding/internal/risk/fraudapi"
	"customer-onboarding/internal/risk/heuristic"

	cbe "customer-onboarding/internal/workers/customer/create-blacklist-entry"
	onb "customer-onboarding/internal/workers/customer/onboard-customer"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	configFile := flag.String("config", "", "path to a config file; defaults to configs/config.yaml")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFromFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	zapLog.Info("Starting customer onboarding service...", zap.String("version", cfg.App.Version))

	obs := observability.New(cfg.App.Name, cfg.App.Version, observability.TracingOptions{
		Enabled:           cfg.Tracing.Enabled,
		CollectorEndpoint: cfg.Tracing.CollectorEndpoint,
		SampleRatio:       cfg.Tracing.SampleRatio,
	})
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	readiness := []api.ReadinessCheck{
		{Name: "postgres", Probe: pg.Ping},
		{Name: "redis", Probe: redis.Ping},
	}

	// --- Risk assessment ---
	blacklistRepo := blacklist.NewRepository(pg.DB, log)

	rules := heuristic.DefaultRules()
	rules.TrustedPhonePrefix = cfg.Risk.Heuristic.TrustedPhonePrefix
	rules.SuspiciousEmailSuffix = cfg.Risk.Heuristic.SuspiciousEmailSuffix

	orchestrator := assessment.NewOrchestrator(
		blacklistRepo,
		fraudapi.NewClient(cfg.FraudAPI, log),
		heuristic.NewScorer(rules, log),
		assessment.Thresholds{
			MediumScore: cfg.Risk.MediumScoreThreshold,
			Heuristic:   cfg.Risk.HeuristicThreshold,
		},
		log,
	)

	// --- Init Elasticsearch audit trail with retry ---
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		orchestrator = orchestrator.WithRecorder(
			audit.NewElasticsearchRecorder(esClient.Client, cfg.Database.Elasticsearch.AuditIndex, log),
		)
		readiness = append(readiness, api.ReadinessCheck{Name: "elasticsearch", Probe: esClient.Ping})
	}

	// --- Notifications ---
	var (
		emailSender    notify.EmailSender
		eventPublisher notify.EventPublisher
	)
	if cfg.Notifications.Email.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		emailSender = ses
	}
	if cfg.Notifications.Events.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Events.TopicARN)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}
		eventPublisher = sns
	}

	customers := customer.NewService(
		customer.NewPostgresRepository(pg.DB),
		orchestrator,
		customer.NewRedisLocker(redis.Client, config.GetDuration(cfg.Onboarding.LockTTL)),
		notify.NewNotifier(emailSender, eventPublisher, log),
		log,
	)

	// --- Zeebe workers ---
	workers := camunda.NewWorkers(log)
	if cfg.Camunda.Enabled {
		var zeebe *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")

		onboardCfg := config.GetWorkerConfig(cfg, onb.TaskType)
		onboardHandler := onb.NewHandler(onb.LoadConfig(onboardCfg, cfg.Onboarding), customers, log)
		workers.Start(zeebe.Zeebe(), onb.TaskType, onboardCfg, onboardHandler.Handle)

		blacklistCfg := config.GetWorkerConfig(cfg, cbe.TaskType)
		blacklistHandler := cbe.NewHandler(cbe.LoadConfig(blacklistCfg), blacklistRepo, log)
		workers.Start(zeebe.Zeebe(), cbe.TaskType, blacklistCfg, blacklistHandler.Handle)

		readiness = append(readiness, api.ReadinessCheck{Name: "zeebe", Probe: zeebe.HealthCheck})
		zapLog.Info("Zeebe workers registered", zap.Int("count", workers.Len()))
	}

	// --- HTTP API ---
	deps := api.Dependencies{
		Customers:     customers,
		Blacklist:     blacklistRepo,
		Readiness:     readiness,
		Observability: obs,
		MinimumAge:    cfg.Onboarding.MinimumAge,
	}
	if cfg.Server.MockFraudEndpoint {
		deps.FraudMock = fraudmock.NewScorer(cfg.Risk.MockRules)
		zapLog.Info("Mock fraud detection endpoint enabled")
	}

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(log, deps),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	workers.Close()

	zapLog.Info("Customer onboarding service stopped gracefully")
}
