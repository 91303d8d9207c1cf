package sessionstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

const keyPrefix = "session:revoked:"

type redisStore struct {
	client *redis.Client
}

var _ user.SessionStore = (*redisStore)(nil) // interface compliance check

func NewRedisClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

func NewRedisStore(client *redis.Client) user.SessionStore {
	return &redisStore{client: client}
}

// Revoke marks the session as revoked; the key expires once the session token would have.
func (s *redisStore) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, keyPrefix+sessionID, 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "revoking session")
	}
	return nil
}

func (s *redisStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking session")
	}
	return n > 0, nil
}
