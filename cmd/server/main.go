package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/reflens/reflens/config"
	appmodel "github.com/reflens/reflens/internal/app/model"
	apprepository "github.com/reflens/reflens/internal/app/repository"
	appserver "github.com/reflens/reflens/internal/app/server"
	appservice "github.com/reflens/reflens/internal/app/service"
	"github.com/reflens/reflens/internal/infra/logger"
	infraNATS "github.com/reflens/reflens/internal/infra/nats"
	infraPostgres "github.com/reflens/reflens/internal/infra/postgres"
	infraPrometheus "github.com/reflens/reflens/internal/infra/prometheus"
	infraRedis "github.com/reflens/reflens/internal/infra/redis"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("base_url", cfg.App.BaseURL),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.Duration("rate_limit_window", cfg.RateLimit.ParseWindow()),
		zap.Bool("notify_enabled", cfg.Notify.Enabled()),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.Application{},
		&appmodel.RefCode{},
		&appmodel.Visit{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	appRepo := apprepository.NewApplicationRepository(gormDB)
	codeRepo := apprepository.NewRefCodeRepository(gormDB)
	visitRepo := apprepository.NewVisitRepository(gormDB)
	analyticsRepo := apprepository.NewAnalyticsRepository(pool)

	generator := appservice.NewCodeGenerator(codeRepo, log)
	if err := generator.Seed(ctx); err != nil {
		// The store check still catches collisions; a cold filter only
		// costs extra lookups.
		log.Warn("Failed to seed ref code filter", zap.Error(err))
	}

	notifier := appservice.NewMailNotifier(cfg.Notify, appRepo, log)

	var publisher *appservice.FirstVisitPublisher
	if cfg.NATS.Host != "" {
		natsConn, js, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()

		publisher = appservice.NewFirstVisitPublisher(js)
		consumer := appservice.NewFirstVisitConsumer(js, log, notifier)
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start first visit consumer", zap.Error(err))
		}
		log.Info("Connected to NATS successfully")
	} else {
		log.Info("NATS not configured, dispatching notifications in-process")
	}

	applicationService := appservice.NewApplicationService(appRepo, generator, cfg.App.BaseURL, log)
	limiter := appservice.NewRateLimiter(cfg.RateLimit.ParseWindow())
	visitService := appservice.NewVisitService(codeRepo, visitRepo, limiter, publisher, notifier, log)
	analyticsService := appservice.NewAnalyticsService(analyticsRepo)

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Connected to Redis successfully")
	} else {
		log.Info("Redis not configured, skipping edge rate limit")
	}

	server := appserver.New(appserver.Dependencies{
		Logger:       log,
		Redis:        redisClient,
		Applications: applicationService,
		Visits:       visitService,
		Analytics:    analyticsService,
		AdminToken:   cfg.App.AdminToken,
		CalendlyURL:  cfg.App.CalendlyURL,
	})

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	if err := server.Listen(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
