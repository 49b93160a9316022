package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edupost/edupost-client/internal/storage"
	goredis "github.com/redis/go-redis/v9"
)

// Ensure Store satisfies the storage.TokenStore interface at compile time.
var _ storage.TokenStore = (*Store)(nil)

// Store keeps the token under a single Redis key with no expiry.
type Store struct {
	client *goredis.Client
	key    string
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewTokenStore connects to Redis and verifies the connection with a ping.
func NewTokenStore(ctx context.Context, opts Options, key string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{client: client, key: key}, nil
}

// NewTokenStoreWithClient wraps an existing client.
func NewTokenStoreWithClient(client *goredis.Client, key string) *Store {
	return &Store{client: client, key: key}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return "", storage.ErrNotFound
	}
	return token, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
