package routes

import (
	"context"
	"fmt"
	"time"
	"x402_gateway/internal/adapter/persistence/repository"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/infrastructure/auth"
	"x402_gateway/internal/infrastructure/cache"
	"x402_gateway/internal/infrastructure/config"
	"x402_gateway/internal/infrastructure/database"
	"x402_gateway/internal/infrastructure/events"
	"x402_gateway/internal/infrastructure/facilitator"
	"x402_gateway/internal/usecase"
	"x402_gateway/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const (
	supportedProbeTimeout = 5 * time.Second
	gateDescription       = "Paid access to protected resources"
)

// dependencies holds everything the router and the worker share.
type dependencies struct {
	store        interfaces.ISettlementRepository
	nonces       interfaces.INonceCache
	publisher    interfaces.ISettlementEventPublisher
	facilitator  interfaces.IFacilitatorGateway
	sessions     interfaces.ISessionProvider
	breakerState func() string

	settlements *usecase.SettlementUseCase
	worker      *usecase.SettlementWorker
	gate        *usecase.AccessGateUseCase

	closers []func()
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func buildDependencies(ctx context.Context, cfg config.Config, logger *zap.Logger) (*dependencies, error) {
	d := &dependencies{}

	store, closeStore, err := newSettlementStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	d.store = store
	d.closers = append(d.closers, closeStore)

	d.nonces = newNonceCache(cfg, logger, d)
	d.publisher = newPublisher(cfg, logger, d)

	if cfg.FacilitatorMock {
		d.facilitator = facilitator.NewMockFacilitatorGateway(logger)
	} else {
		gw := facilitator.NewHTTPFacilitatorGateway(facilitator.Config{
			URL:          cfg.FacilitatorURL,
			Timeout:      cfg.FacilitatorTimeout,
			MaxFailures:  cfg.FacilitatorMaxFailures,
			ResetTimeout: cfg.FacilitatorResetAfter,
		}, logger)
		d.facilitator = gw
		d.breakerState = func() string { return gw.BreakerState().String() }
	}

	d.sessions = auth.NewJWTSessionProvider(cfg.SessionJWTSecret)
	if cfg.SessionJWTSecret == "" {
		logger.Warn("SESSION_JWT_SECRET is not set; settlement read routes will reject every request")
	}

	d.settlements = usecase.NewSettlementUseCase(d.store, d.publisher, logger)
	worker, err := usecase.NewSettlementWorker(d.store, d.facilitator, d.publisher, logger, usecase.SettlementWorkerConfig{
		SettleTimeout:    cfg.SettleTimeout,
		ProcessingMaxAge: cfg.ProcessingMaxAge,
	})
	if err != nil {
		d.Close()
		return nil, err
	}
	d.worker = worker

	gate, err := usecase.NewAccessGateUseCase(usecase.AccessGateConfig{
		Price:             cfg.Price,
		Networks:          cfg.PayNetworks,
		PayTo:             cfg.PayTo,
		Asset:             cfg.PayAsset,
		Description:       gateDescription,
		MimeType:          x402.DefaultMimeType,
		FacilitatorURL:    cfg.FacilitatorURL,
		MaxTimeoutSeconds: x402.DefaultMaxTimeoutSeconds,
		EnqueueOnVerify:   cfg.EnqueueOnVerify,
		NonceTTL:          cfg.NonceCacheTTL,
	}, d.facilitator, d.nonces, d.store, logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.gate = gate

	return d, nil
}

func newSettlementStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (interfaces.ISettlementRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreDynamoDB:
		ddb, err := database.ConnectDynamoDB(ctx, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("dynamodb: %w", err)
		}
		return repository.NewSettlementDynamoRepository(ddb, cfg.SettlementsTable, cfg.SettlementLogsTable), func() {}, nil
	case config.StorePostgres:
		db, err := database.InitPostgres(ctx, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		return repository.NewSettlementPostgresRepository(db), func() { _ = db.Close() }, nil
	case config.StoreMemory:
		logger.Warn("using in-memory settlement store; settlements are lost on restart")
		return repository.NewSettlementMemoryRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

// newNonceCache prefers Redis and falls back to process memory when Redis is
// not configured or unreachable.
func newNonceCache(cfg config.Config, logger *zap.Logger, d *dependencies) interfaces.INonceCache {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryNonceCache()
	}
	rdb, err := cache.InitRedis(cfg.RedisAddr, cfg.RedisPassword, logger)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory nonce cache", zap.Error(err))
		return cache.NewMemoryNonceCache()
	}
	d.closers = append(d.closers, func() { _ = rdb.Close() })
	return cache.NewRedisNonceCache(rdb)
}

func newPublisher(cfg config.Config, logger *zap.Logger, d *dependencies) interfaces.ISettlementEventPublisher {
	if cfg.KafkaBroker == "" {
		return events.NewLogPublisher(logger)
	}
	producer, err := events.InitProducer(cfg.KafkaBroker, logger)
	if err != nil {
		logger.Warn("Kafka unavailable, settlement events will only be logged", zap.Error(err))
		return events.NewLogPublisher(logger)
	}
	d.closers = append(d.closers, func() { _ = producer.Close() })
	return events.NewKafkaSettlementPublisher(producer, cfg.SettlementEventTopic, logger)
}
