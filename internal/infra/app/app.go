package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/infra/config"
	"github.com/ggontijo/campus-market/internal/infra/database"
	kafkainfra "github.com/ggontijo/campus-market/internal/infra/kafka"
	"github.com/ggontijo/campus-market/internal/infra/logger"
	"github.com/ggontijo/campus-market/internal/infra/mongodb"
	redisinfra "github.com/ggontijo/campus-market/internal/infra/redis"
	"github.com/ggontijo/campus-market/internal/infra/security"
	"github.com/ggontijo/campus-market/internal/infra/telemetry"
	mongorepo "github.com/ggontijo/campus-market/internal/repository/mongo"
	postgresrepo "github.com/ggontijo/campus-market/internal/repository/postgres"
	redisrepo "github.com/ggontijo/campus-market/internal/repository/redis"
	"github.com/ggontijo/campus-market/internal/transport/http/middleware"
	"github.com/ggontijo/campus-market/internal/transport/http/routes"
	"github.com/ggontijo/campus-market/internal/usecase"
	"github.com/ggontijo/campus-market/internal/worker"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	mongo    *mongodb.Client
	producer *kafkainfra.Producer
	tracer   *telemetry.TracerProvider
	expirer  *worker.Expirer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracer *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			log.Warn("tracing disabled", zap.Error(err))
			tracer = nil
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	tokens, err := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	mongoClient, err := mongodb.NewClient(cfg.Mongo, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init mongodb: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)
	mediaStore := mongorepo.NewMediaRepository(mongoClient.Database(), cfg.Mongo.ImageBucket)

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			producer = nil
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimitTTL := cfg.Redis.RateLimitTTL
	if rateLimitTTL <= 0 {
		rateLimitTTL = 24 * time.Hour
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       rateLimitTTL,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	gate := usecase.NewGate()

	identityService := usecase.NewIdentityService(
		repos.Identities,
		security.DefaultPasswordValidator(),
		eventPublisher,
		cfg.Identity.AutoActivate,
	).WithLogger(log)

	listingService := usecase.NewListingService(repos.Listings, repos.Categories, gate, eventPublisher).
		WithLogger(log)
	catalogService := usecase.NewCatalogService(repos.Listings, gate)
	categoryService := usecase.NewCategoryService(repos.Categories, repos.Listings, gate)
	mediaService := usecase.NewMediaService(mediaStore, repos.Listings, gate, cfg.Listing.MaxImages).
		WithLogger(log)

	expirer := worker.NewExpirer(listingService, cfg.Listing.ExpiryAge, cfg.Listing.SweepInterval, log)

	if cfg.Telemetry.MetricsEnabled {
		metrics := telemetry.NewMetrics()
		listingService.WithObservers(
			metrics.ListingsCreated.Inc,
			func(to domain.ListingStatus) {
				metrics.StatusTransition.WithLabelValues(string(to)).Inc()
			},
		)
		expirer.WithObserver(func(count int) {
			metrics.ListingsExpired.Add(float64(count))
		})
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Tokens:      tokens,
		Database:    pool,
		Cache:       redisClient,
		Media:       mongoClient,
		Services: routes.ServiceSet{
			Identities: identityService,
			Categories: categoryService,
			Listings:   listingService,
			Catalog:    catalogService,
			Media:      mediaService,
			MediaStore: mediaStore,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		mongo:    mongoClient,
		producer: producer,
		tracer:   tracer,
		expirer:  expirer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.mongo != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.mongo.Close(closeCtx)
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()

	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.expirer.Run(sweeperCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting marketplace API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		stopSweeper()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
