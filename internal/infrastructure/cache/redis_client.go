// Package cache provides Redis caching infrastructure for PantryChef
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/infrastructure/config"
	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// ErrCircuitOpen is returned while the breaker rejects Redis calls
var ErrCircuitOpen = errors.New("redis circuit breaker is open")

// RedisClient wraps a Redis client with circuit breaker protection
type RedisClient struct {
	client         redis.UniversalClient
	logger         *zap.Logger
	circuitBreaker *CircuitBreaker
	hits           atomic.Int64
	misses         atomic.Int64
}

// Stats reports cache hits and misses since start
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig, logger *zap.Logger) (*RedisClient, error) {
	opts := &redis.UniversalOptions{
		Addrs:        []string{cfg.Addr()},
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// Connection timeouts
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,

		ConnMaxIdleTime: time.Minute * 5,
		PoolTimeout:     time.Second * 10,
	}

	// Configure cluster mode if enabled
	if cfg.EnableCluster && len(cfg.ClusterNodes) > 0 {
		opts.Addrs = cfg.ClusterNodes
		logger.Info("Redis cluster mode enabled", zap.Strings("nodes", cfg.ClusterNodes))
	}

	client := NewRedisClientFrom(redis.NewUniversalClient(opts), logger)

	// Test initial connection
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized successfully",
		zap.String("addr", cfg.Addr()),
		zap.Int("database", cfg.Database),
		zap.Bool("cluster_enabled", cfg.EnableCluster))

	return client, nil
}

// NewRedisClientFrom wraps an existing client
func NewRedisClientFrom(client redis.UniversalClient, logger *zap.Logger) *RedisClient {
	return &RedisClient{
		client:         client,
		logger:         logger.Named("redis"),
		circuitBreaker: NewCircuitBreaker(5, 30*time.Second),
	}
}

// Client exposes the underlying client for health checks
func (r *RedisClient) Client() redis.UniversalClient {
	return r.client
}

// Ping tests Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.guard(func() error {
		return r.client.Ping(ctx).Err()
	})
}

// Get retrieves a value; a missing key returns outbound.ErrCacheMiss
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	var result []byte
	err := r.guard(func() error {
		var err error
		result, err = r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		r.misses.Add(1)
		r.logger.Debug("Redis GET failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	if result == nil {
		r.misses.Add(1)
		return nil, outbound.ErrCacheMiss
	}

	r.hits.Add(1)
	return result, nil
}

// Set stores a value with TTL
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.guard(func() error {
		return r.client.Set(ctx, key, value, ttl).Err()
	})
}

// Delete removes keys
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return r.guard(func() error {
		return r.client.Del(ctx, keys...).Err()
	})
}

// Exists counts the existing keys
func (r *RedisClient) Exists(ctx context.Context, keys ...string) (int64, error) {
	var n int64
	err := r.guard(func() error {
		var err error
		n, err = r.client.Exists(ctx, keys...).Result()
		return err
	})
	return n, err
}

// Stats returns hit and miss counters
func (r *RedisClient) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}

// Close closes the connection pool
func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) guard(op func() error) error {
	if !r.circuitBreaker.AllowRequest() {
		return ErrCircuitOpen
	}
	if err := op(); err != nil {
		r.circuitBreaker.RecordFailure()
		return err
	}
	r.circuitBreaker.RecordSuccess()
	return nil
}

// CircuitState represents circuit breaker states
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker stops calling Redis after repeated failures
type CircuitBreaker struct {
	maxFailures     int
	timeout         time.Duration
	failures        int
	lastFailureTime time.Time
	state           CircuitState
	now             func() time.Time
	mu              sync.Mutex
}

// NewCircuitBreaker opens after maxFailures consecutive failures and retries after timeout
func NewCircuitBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		timeout:     timeout,
		state:       CircuitClosed,
		now:         time.Now,
	}
}

// AllowRequest checks if a request should be allowed
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) > cb.timeout {
			cb.state = CircuitHalfOpen
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess records a successful operation
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = CircuitClosed
}

// RecordFailure records a failed operation
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailureTime = cb.now()

	if cb.failures >= cb.maxFailures || cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
