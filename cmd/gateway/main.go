package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/api"
	"github.com/lalithlochan/returns-notifier/internal/circuitbreaker"
	"github.com/lalithlochan/returns-notifier/internal/complaint"
	"github.com/lalithlochan/returns-notifier/internal/config"
	"github.com/lalithlochan/returns-notifier/internal/db"
	"github.com/lalithlochan/returns-notifier/internal/i18n"
	"github.com/lalithlochan/returns-notifier/internal/observ"
	"github.com/lalithlochan/returns-notifier/internal/redis"
	"github.com/lalithlochan/returns-notifier/internal/ses"
	"github.com/lalithlochan/returns-notifier/internal/sns"
	"github.com/lalithlochan/returns-notifier/internal/sqs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// settingsSource is everything the operation reads from reseller settings,
// served either by the Redis cache or straight from Postgres.
type settingsSource interface {
	complaint.Settings
	complaint.StatusNamer
	i18n.LocaleSource
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting returns notifier",
		zap.String("env", cfg.Env),
		zap.Int("port", cfg.Port),
	)

	ctx := context.Background()

	database, err := db.New(ctx, db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	repo := db.NewRepository(database, logger)
	health := map[string]api.Pinger{"postgres": api.PingFunc(database.Health)}

	// Redis backs the settings cache, idempotency and rate limiting.
	// Without it the notifier still works, reading settings from Postgres.
	var (
		settings    settingsSource = repo
		idempotency *redis.IdempotencyService
		rateLimiter *redis.RateLimiter
		cacheAdmin  *api.CacheHandler
	)
	redisClient, err := redis.New(ctx, redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, caching, idempotency and rate limiting disabled",
			zap.Error(err),
		)
	} else {
		defer redisClient.Close()
		settingsCache := redis.NewSettingsCache(redisClient, repo, cfg.SettingsCacheTTL, logger)
		settings = settingsCache
		cacheAdmin = api.NewCacheHandler(settingsCache, logger)
		idempotency = redis.NewIdempotencyService(redisClient, logger)
		rateLimiter = redis.NewRateLimiter(redisClient, logger, redis.RateLimitConfig{
			Limit:  cfg.RateLimitPerMinute,
			Window: time.Minute,
		})
		health["redis"] = redisClient
	}

	catalog, err := i18n.NewCatalog(cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}
	if cfg.LocalesDir != "" {
		if err := catalog.LoadDir(cfg.LocalesDir); err != nil {
			return fmt.Errorf("failed to load translations from %s: %w", cfg.LocalesDir, err)
		}
	}
	renderer := i18n.NewRenderer(catalog, settings, logger)
	logger.Info("translations loaded", zap.Strings("locales", catalog.Locales()))

	newBreaker := func(name string) *circuitbreaker.CircuitBreaker {
		return circuitbreaker.New(circuitbreaker.Config{
			Name:            name,
			MaxFailures:     cfg.BreakerMaxFailures,
			RecoveryTimeout: cfg.BreakerRecoveryTimeout,
		}, logger)
	}

	var (
		transport complaint.EmailTransport
		breakers  []*circuitbreaker.CircuitBreaker
	)
	if cfg.SQSQueueURL != "" {
		sqsBreaker := newBreaker("sqs")
		producer, err := sqs.NewProducer(ctx, sqs.Config{
			Region:   cfg.SQSRegion,
			QueueURL: cfg.SQSQueueURL,
		}, sqsBreaker, logger)
		if err != nil {
			return fmt.Errorf("failed to create SQS producer: %w", err)
		}
		transport = producer
		breakers = append(breakers, sqsBreaker)
	} else {
		sesBreaker := newBreaker("ses")
		sender, err := ses.New(ctx, ses.Config{Region: cfg.AWSRegion}, sesBreaker, logger)
		if err != nil {
			return fmt.Errorf("failed to create SES transport: %w", err)
		}
		transport = sender
		breakers = append(breakers, sesBreaker)
	}

	snsBreaker := newBreaker("sns")
	smsNotifier, err := sns.New(ctx, sns.Config{Region: cfg.SNSRegion}, repo, renderer, snsBreaker, logger)
	if err != nil {
		return fmt.Errorf("failed to create SNS notifier: %w", err)
	}
	breakers = append(breakers, snsBreaker)

	logger.Info("delivery channels initialized",
		zap.Bool("email_via_queue", cfg.SQSQueueURL != ""),
		zap.Bool("settings_cache", redisClient != nil),
	)

	operation := complaint.New(complaint.Dependencies{
		Directory: repo,
		Statuses:  settings,
		Renderer:  renderer,
		Settings:  settings,
		Transport: transport,
		SMS:       smsNotifier,
	}, logger)

	router := api.NewRouter(api.RouterConfig{
		Handler:  api.NewHandler(logger, operation, idempotency, cfg.RequestTimeout),
		Cache:    cacheAdmin,
		Limiter:  rateLimiter,
		Health:   health,
		Breakers: breakers,
		Timeout:  cfg.RequestTimeout + 5*time.Second,
	}, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests 10 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		logger.Info("server stopped gracefully")
	}

	return nil
}
