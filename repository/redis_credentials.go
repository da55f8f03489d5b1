package repository

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/michivo/go-vota"
	"github.com/redis/go-redis/v9"
)

var _ vota.CredentialStore = &RedisCredentialStore{}

// DefaultRedisKeyPrefix namespaces credential keys
const DefaultRedisKeyPrefix = "vota:credentials:"

// RedisOption customizes the redis store.
type RedisOption func(*RedisCredentialStore)

// WithRedisKeyPrefix overrides DefaultRedisKeyPrefix.
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(s *RedisCredentialStore) {
		s.key = prefix + vota.CredentialKey
	}
}

// WithRedisClock injects a custom clock (useful for tests).
func WithRedisClock(clock func() time.Time) RedisOption {
	return func(s *RedisCredentialStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// RedisCredentialStore implements vota.CredentialStore on a redis key that
// expires together with the token.
type RedisCredentialStore struct {
	client redis.UniversalClient
	key    string
	now    func() time.Time
}

func NewRedisCredentialStore(client redis.UniversalClient, opts ...RedisOption) *RedisCredentialStore {
	s := &RedisCredentialStore{
		client: client,
		key:    DefaultRedisKeyPrefix + vota.CredentialKey,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Key returns the redis key the token is stored under
func (s *RedisCredentialStore) Key() string {
	return s.key
}

// Load implements vota.CredentialStore.
func (s *RedisCredentialStore) Load(ctx context.Context) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load credential from redis")
	}
	return token, token != "", nil
}

// Save implements vota.CredentialStore. Tokens with an expiry claim get a
// matching TTL, tokens that already expired are not stored.
func (s *RedisCredentialStore) Save(ctx context.Context, token string) error {
	var ttl time.Duration
	if exp := tokenExpiry(token); exp != nil {
		ttl = exp.Sub(s.now())
		if ttl <= 0 {
			return s.Remove(ctx)
		}
	}

	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save credential to redis")
	}
	return nil
}

// Remove implements vota.CredentialStore.
func (s *RedisCredentialStore) Remove(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove credential from redis")
	}
	return nil
}
