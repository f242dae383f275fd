package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripsetu/backend/internal/domain/trip"
)

// RedisRouteStore implements trip.RouteStore using Redis. Suitable for
// multi-instance deployments where any instance may continue a journey
// started on another.
type RedisRouteStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRouteStore connects to Redis and returns a route store
func NewRedisRouteStore(cfg RedisConfig) (*RedisRouteStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRouteStore{
		client:    client,
		keyPrefix: "journey:route:",
	}, nil
}

// NewRedisRouteStoreWithClient wraps an existing Redis client. Useful for
// testing or when sharing a client across components.
func NewRedisRouteStoreWithClient(client *redis.Client, keyPrefix string) *RedisRouteStore {
	if keyPrefix == "" {
		keyPrefix = "journey:route:"
	}
	return &RedisRouteStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// SaveRoute pins transactionID to route for at most ttl. Re-pinning the
// same transaction overwrites the previous route and refreshes the TTL.
func (s *RedisRouteStore) SaveRoute(ctx context.Context, transactionID string, route trip.Route, ttl time.Duration) error {
	payload, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("failed to encode route: %w", err)
	}

	if err := s.client.Set(ctx, s.keyPrefix+transactionID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save route: %w", err)
	}
	return nil
}

// FindRoute returns the pinned route, or trip.ErrRouteNotFound
func (s *RedisRouteStore) FindRoute(ctx context.Context, transactionID string) (*trip.Route, error) {
	payload, err := s.client.Get(ctx, s.keyPrefix+transactionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, trip.ErrRouteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load route: %w", err)
	}

	var route trip.Route
	if err := json.Unmarshal(payload, &route); err != nil {
		return nil, fmt.Errorf("failed to decode route: %w", err)
	}
	return &route, nil
}

// Close closes the Redis client
func (s *RedisRouteStore) Close() error {
	return s.client.Close()
}

// Ensure RedisRouteStore implements RouteStore
var _ trip.RouteStore = (*RedisRouteStore)(nil)
