package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/medflow/internal/hash"
)

const redisPrefix = "medflow:sess:"

// RedisStore keeps sessions as JSON values; expiry is delegated to key TTLs.
type RedisStore struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{RDB: rdb, TTL: ttl}, nil
}

func (s *RedisStore) key(token string) string {
	return redisPrefix + hash.Sha256Hex(token)
}

func (s *RedisStore) Create(ctx context.Context, data Data) (string, time.Time, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	token, err := newToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session token: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.RDB.Set(ctx, s.key(token), raw, ttl).Err(); err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().UTC().Add(ttl), nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Data, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	raw, err := s.RDB.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &data, nil
}

func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.RDB.Del(ctx, s.key(token)).Err()
}

func (s *RedisStore) Close() error { return s.RDB.Close() }
