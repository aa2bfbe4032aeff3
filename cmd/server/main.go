package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/promoit/shortlink/config"
	"github.com/promoit/shortlink/internal/app/codegen"
	appmodel "github.com/promoit/shortlink/internal/app/model"
	apprepository "github.com/promoit/shortlink/internal/app/repository"
	appserver "github.com/promoit/shortlink/internal/app/server"
	appservice "github.com/promoit/shortlink/internal/app/service"
	"github.com/promoit/shortlink/internal/infra/logger"
	infraNATS "github.com/promoit/shortlink/internal/infra/nats"
	infraPostgres "github.com/promoit/shortlink/internal/infra/postgres"
	infraPrometheus "github.com/promoit/shortlink/internal/infra/prometheus"
	infraRedis "github.com/promoit/shortlink/internal/infra/redis"
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
		zap.String("base_url", cfg.Link.BaseURL),
		zap.Int("default_ttl_hours", cfg.Link.DefaultTTLHours),
		zap.Int("code_length", cfg.Link.CodeLength),
		zap.Duration("sweep_interval", cfg.Sweep.Interval),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("nats_host", cfg.NATS.Host),
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
		&appmodel.User{}, &appmodel.Link{}, &appmodel.Notification{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

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

	linkRepo := apprepository.NewLinkRepository(gormDB)
	userRepo := apprepository.NewUserRepository(gormDB)
	noticeRepo := apprepository.NewNotificationRepository(gormDB)

	codeFilter := appservice.NewCodeFilter()
	seeded, err := codeFilter.Seed(ctx, linkRepo)
	if err != nil {
		log.Fatal("Failed to seed code filter", zap.Error(err))
	}
	log.Info("Code filter seeded", zap.Int("codes", seeded))

	sink := appservice.NewNotificationPublisher(js, log)

	linkService := appservice.NewLinkService(linkRepo, codegen.NewSecure(), sink, codeFilter, log,
		appservice.LinkServiceConfig{
			BaseURL:    cfg.Link.BaseURL,
			DefaultTTL: cfg.Link.TTL(),
			CodeLength: cfg.Link.CodeLength,
		})
	userService := appservice.NewUserService(userRepo)

	noticeConsumer := appservice.NewNotificationConsumer(js, log, noticeRepo)
	if err := noticeConsumer.Start(); err != nil {
		log.Fatal("Failed to start notification consumer", zap.Error(err))
	}

	sweeper := appservice.NewExpirySweeper(log, linkService, cfg.Sweep.Interval)
	sweeper.Start()
	defer sweeper.Stop()

	server := appserver.New(appserver.Dependencies{
		Logger:    log,
		Postgres:  pool,
		Redis:     redisClient,
		NATS:      natsConn,
		JetStream: js,
		Links:     linkService,
		Users:     userService,
	})

	if err := server.Listen(":8080"); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
