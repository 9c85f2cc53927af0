package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

const credentialKeyPrefix = "console:credential:"

// RedisClient is the subset of *redis.Client the credential store uses.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisCredentialStore keeps bearer credentials under the console session
// id with the session TTL, so expiry is handled by Redis.
type RedisCredentialStore struct {
	client RedisClient
	cb     *gobreaker.CircuitBreaker
}

var _ ports.CredentialStore = (*RedisCredentialStore)(nil)

func NewRedisCredentialStore(client RedisClient, cb *gobreaker.CircuitBreaker) *RedisCredentialStore {
	return &RedisCredentialStore{client: client, cb: cb}
}

func credentialKey(sessionID string) string {
	return credentialKeyPrefix + sessionID
}

func (s *RedisCredentialStore) SaveCredential(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Set(ctx, credentialKey(sessionID), token, ttl).Err()
	})
	return err
}

func (s *RedisCredentialStore) LoadCredential(ctx context.Context, sessionID string) (string, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		token, err := s.client.Get(ctx, credentialKey(sessionID)).Result()
		if errors.Is(err, redis.Nil) {
			// a missing key is an answer, not a Redis failure
			return "", nil
		}
		return token, err
	})
	if err != nil {
		return "", err
	}
	token := result.(string)
	if token == "" {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (s *RedisCredentialStore) DeleteCredential(ctx context.Context, sessionID string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Del(ctx, credentialKey(sessionID)).Err()
	})
	return err
}

func (s *RedisCredentialStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
