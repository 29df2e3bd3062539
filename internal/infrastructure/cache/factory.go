package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smartinvoice/backend/internal/domain/pricing"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the stores backed by the same Redis connection
type Stores struct {
	Drafts      pricing.DraftStore
	Idempotency shared.IdempotencyStore
	client      redis.UniversalClient
}

// Close releases the idempotency store and the Redis connection
func (s *Stores) Close() error {
	err := s.Idempotency.Close()
	if s.client != nil {
		if cerr := s.client.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Distributed reports whether the stores are shared between instances
func (s *Stores) Distributed() bool {
	return s.client != nil
}

// StoreFactory creates draft and idempotency stores based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory stores. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns Redis backed stores when Redis is configured and reachable,
// otherwise in-memory stores if fallback is allowed.
func (f *StoreFactory) Create(ctx context.Context) (*Stores, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("redis not configured, using in-memory draft and idempotency stores")
		return InMemoryStores(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("redis unavailable, falling back to in-memory stores; drafts will not survive restarts",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return InMemoryStores(), nil
	}

	f.logger.Info("using redis draft and idempotency stores", zap.String("addr", f.redisConfig.Addr()))
	return &Stores{
		Drafts:      NewRedisDraftStore(client),
		Idempotency: NewRedisIdempotencyStore(client, ""),
		client:      client,
	}, nil
}

// InMemoryStores returns process local stores, used for SQLite setups and tests
func InMemoryStores() *Stores {
	return &Stores{
		Drafts:      NewInMemoryDraftStore(),
		Idempotency: NewInMemoryIdempotencyStore(),
	}
}
