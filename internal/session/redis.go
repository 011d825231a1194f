package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/startup-vidyapith/apiserver/config"
)

const revokedKeyPrefix = "vidyapith:revoked:"

// RedisRevoker stores revoked ids as keys that expire with the token.
type RedisRevoker struct {
	rdb *goredis.Client
}

// NewRedisRevoker connects to cfg.Addr and verifies the connection.
func NewRedisRevoker(ctx context.Context, cfg config.RedisConfig) (*RedisRevoker, error) {
	if cfg.Addr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisRevoker{rdb: rdb}, nil
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRevoker) Close() error {
	return r.rdb.Close()
}
