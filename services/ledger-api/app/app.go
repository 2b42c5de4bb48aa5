package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/custodialbank/ledger/pkg"
	"github.com/custodialbank/ledger/pkg/cache"
	"github.com/custodialbank/ledger/pkg/database"
	middleware "github.com/custodialbank/ledger/pkg/middlewares"
	"github.com/custodialbank/ledger/pkg/repositories"
	"github.com/custodialbank/ledger/pkg/utils"
	"github.com/custodialbank/ledger/services/ledger-api/configs"
	_ "github.com/custodialbank/ledger/services/ledger-api/docs"
	"github.com/custodialbank/ledger/services/ledger-api/internal/handlers"
	"github.com/custodialbank/ledger/services/ledger-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/swaggo/files"
	"github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	// Load config
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// Initialize postgres db
	dbConfig := database.Config{
		PrimaryDSN:  cfg.PrimaryDbAddr,
		ReplicaDSNs: []string{cfg.ReplicaDbAddr},
		MaxConns:    cfg.MaxDbCons,
		MinConns:    cfg.MinDbCons,
	}
	db, disconnect, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations on primary
	if err := database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		disconnect()
		return nil, nil, err
	}

	// Redis is optional; without it the transfer rate limit is local-only.
	var redisClient *redis.Client
	closeRedis := func() {}
	if !utils.IsEmpty(cfg.RedisAddr) {
		redisClient, closeRedis, err = cache.New(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			disconnect()
			return nil, nil, err
		}
	}

	// Audit events go to Kafka when brokers are configured.
	var publisher services.AuditPublisher = services.NoopAuditPublisher{}
	if !utils.IsEmpty(cfg.KafkaBrokers) {
		publisher, err = services.NewKafkaAuditPublisher(logger, cfg)
		if err != nil {
			closeRedis()
			disconnect()
			return nil, nil, err
		}
	}

	// Setup dependencies
	userRepo := repositories.NewUserRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)

	authService := services.NewAuthService(logger, cfg, db, userRepo, accountRepo, services.NewBcryptHasher())
	transferService := services.NewTransferService(logger, cfg, db, userRepo, accountRepo, txnRepo, publisher)
	queryService := services.NewQueryService(logger, userRepo, accountRepo, txnRepo)

	limiter := pkg.NewDistributedLimiter(redisClient, "global:transfer_rate",
		cfg.TransferRatePerSec, cfg.TransferRateBurst, time.Minute, logger)

	// Transfer idempotency keys need Redis; without it every request executes.
	var idemStore cache.IdempotencyStore = cache.NoopIdempotencyStore{}
	if redisClient != nil {
		idemStore = cache.NewRedisIdempotencyStore(logger, redisClient, cfg.IdempotencyTTL())
	}

	baseHandler := handlers.NewBaseHandler(logger)
	authHandler := handlers.NewAuthHandler(logger, authService, int(cfg.TokenTTL().Seconds()))
	ledgerHandler := handlers.NewLedgerHandler(logger, transferService, queryService, limiter, idemStore)

	// Router
	r := gin.Default()

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.TraceID())
	api.Use(middleware.Metrics())

	authHandler.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.Auth([]byte(cfg.JwtSecret)))
	ledgerHandler.RegisterRoutes(protected)

	baseHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	cleanup := func() {
		publisher.Close()
		closeRedis()
		disconnect()
	}

	return srv, cleanup, nil
}
