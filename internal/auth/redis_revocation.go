package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked_token:"

// RedisRevocationSet 吊销记录保存在 redis，过期由 key TTL 处理
type RedisRevocationSet struct {
	client *goredis.Client
	now    func() time.Time
}

func NewRedisRevocationSet(client *goredis.Client) *RedisRevocationSet {
	return &RedisRevocationSet{client: client, now: time.Now}
}

func (s *RedisRevocationSet) Add(ctx context.Context, token string, until time.Time) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RedisRevocationSet) Contains(ctx context.Context, token string) (bool, error) {
	if s.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	n, err := s.client.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// key 使用令牌摘要，避免把完整令牌写进 redis
func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedPrefix + hex.EncodeToString(sum[:])
}
