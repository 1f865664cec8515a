package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/doronEilam/blog/pkg/logger"
)

const redisOpTimeout = 5 * time.Second

// RedisStore keeps the credential pair and identity snapshot in a single
// Redis hash, so saving both tokens is one atomic command. Useful when
// several headless workers share one session.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed store. Prefix may be empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "blog:"
	}
	return &RedisStore{client: client, key: prefix + "credentials"}
}

func (s *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisOpTimeout)
}

func (s *RedisStore) Save(pair Pair) error {
	if pair.Access == "" || pair.Refresh == "" {
		logger.Warnf("credentials: refusing to save partial pair (access=%t refresh=%t)", pair.Access != "", pair.Refresh != "")
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.HSet(ctx, s.key, accessKey, pair.Access, refreshKey, pair.Refresh).Err(); err != nil {
		return fmt.Errorf("save pair: %w", err)
	}
	return nil
}

func (s *RedisStore) Load() (Pair, bool) {
	ctx, cancel := s.ctx()
	defer cancel()
	vals, err := s.client.HMGet(ctx, s.key, accessKey, refreshKey).Result()
	if err != nil {
		logger.Warnf("credentials: redis load: %v", err)
		return Pair{}, false
	}
	access, _ := vals[0].(string)
	refresh, _ := vals[1].(string)
	if access == "" || refresh == "" {
		return Pair{}, false
	}
	return Pair{Access: access, Refresh: refresh}, true
}

func (s *RedisStore) Clear() error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.HDel(ctx, s.key, accessKey, refreshKey).Err(); err != nil {
		return fmt.Errorf("clear pair: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveIdentity(data []byte) error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.HSet(ctx, s.key, identityKey, string(data)).Err(); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadIdentity() ([]byte, bool) {
	ctx, cancel := s.ctx()
	defer cancel()
	v, err := s.client.HGet(ctx, s.key, identityKey).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warnf("credentials: redis load identity: %v", err)
		}
		return nil, false
	}
	if v == "" {
		return nil, false
	}
	return []byte(v), true
}

func (s *RedisStore) ClearIdentity() error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.HDel(ctx, s.key, identityKey).Err(); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}
