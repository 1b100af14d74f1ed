package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/math-quiz/internal/config"
	"github.com/math-quiz/internal/kv"
	"github.com/redis/go-redis/v9"
)

// Store is a Redis-backed kv.Store. Every collection lives under a single
// string key and is replaced in full on each write.
type Store struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewStore creates a Redis store. The connection is not checked here: an
// unreachable server only degrades persistence, so callers Ping and decide.
func NewStore(cfg *config.RedisConfig, prefix string, logger *slog.Logger) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return NewStoreWithClient(client, prefix, logger)
}

// NewStoreWithClient wraps an existing client
func NewStoreWithClient(client *redis.Client, prefix string, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// key returns the namespaced Redis key for a collection
func (s *Store) key(name string) string {
	return s.prefix + name
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Get returns the value stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	return value, nil
}

// Set replaces the value stored under key
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	s.logger.Debug("stored collection", "key", key, "bytes", len(value))
	return nil
}

// Keys lists the collection names currently present under the prefix
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning keys: %w", err)
	}
	return names, nil
}
