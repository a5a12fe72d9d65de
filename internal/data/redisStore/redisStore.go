package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger_i.Logger
}

// NewRedisStore connects and pings once. An unreachable server is reported
// so the caller can fall back to memory.
func NewRedisStore(ctx context.Context, cfg config.RunStoreConfig) (*Store, error) {
	logger := logger_i.NewLogger("Redis Store")

	newClient := redis.NewClient(&redis.Options{
		Addr:                  cfg.RedisAddr,
		Password:              cfg.RedisPassword,
		DB:                    cfg.RedisDB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.RedisPingWait)
	defer cancel()

	if err := newClient.Ping(pingCtx).Err(); err != nil {
		_ = newClient.Close()
		logger.Warn("Redis is offline", "addr", cfg.RedisAddr, "error", err)
		return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}

	logger.Debug("Redis store init successfully", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return &Store{client: newClient, ttl: cfg.TTL, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Only in a _test.go file or behind a build tag
func NewTestStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
		logger: logger_i.NewLogger("test redis"),
	}
}
