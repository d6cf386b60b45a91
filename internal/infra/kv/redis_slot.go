package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	repo "storefront/internal/repository"

	"github.com/redis/go-redis/v9"
)

// RedisSlotStorageはSlotStorageのredis実装。
// 読み書きのたびにTTLを延長する（Cookieの期限と揃える）。
type RedisSlotStorage struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

var _ repo.SlotStorage = (*RedisSlotStorage)(nil)

// DI
func NewRedisSlotStorage(client *redis.Client, namespace string, ttl time.Duration) *RedisSlotStorage {
	return &RedisSlotStorage{client: client, namespace: namespace, ttl: ttl}
}

// redis://... から接続し、Pingで確認する
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (s *RedisSlotStorage) Get(ctx context.Context, key string) (string, bool, error) {
	// GETEXに0を渡すと期限が消えるので、期限なしの時はGET
	var cmd *redis.StringCmd
	if s.ttl > 0 {
		cmd = s.client.GetEx(ctx, s.key(key), s.ttl)
	} else {
		cmd = s.client.Get(ctx, s.key(key))
	}
	v, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get slot %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisSlotStorage) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("set slot %s: %w", key, err)
	}
	return nil
}

func (s *RedisSlotStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

func (s *RedisSlotStorage) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}
