// Package nonce issues and consumes the single-use authorization tokens that
// gate unauthenticated callbacks.
//
// A nonce is scoped to one action and one user, lives for a short TTL, and is
// destroyed the moment it is checked. Issuing a new nonce for the same scope
// replaces the previous one, so at most one callback per scope can ever be
// authorized at a time.
package nonce

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTTLRequired is returned when Issue is called without a positive TTL.
var ErrTTLRequired = errors.New("nonce: ttl must be positive")

// Store issues and consumes single-use authorization tokens.
type Store interface {
	// Issue mints a token for the action/user scope, replacing any prior one.
	Issue(ctx context.Context, action string, userID int64, ttl time.Duration) (string, error)
	// Consume validates and destroys the token for the action/user scope.
	//
	// It returns true exactly once per issued token; expired, replaced,
	// already-consumed, or mismatched tokens all return false.
	Consume(ctx context.Context, action string, userID int64, token string) (bool, error)
}

type generator interface {
	Generate() string
}

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client *redis.Client
	uuid   generator
	prefix string
}

// NewRedisStore constructs a RedisStore using the given token generator.
func NewRedisStore(client *redis.Client, uuid generator) *RedisStore {
	return &RedisStore{
		client: client,
		uuid:   uuid,
		prefix: "nonce:",
	}
}

func (s *RedisStore) key(action string, userID int64) string {
	return s.prefix + action + ":" + strconv.FormatInt(userID, 10)
}

// Issue mints a token for the action/user scope, replacing any prior one.
func (s *RedisStore) Issue(ctx context.Context, action string, userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", ErrTTLRequired
	}

	token := s.uuid.Generate()
	if err := s.client.Set(ctx, s.key(action, userID), token, ttl).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Consume validates and destroys the token for the action/user scope.
func (s *RedisStore) Consume(ctx context.Context, action string, userID int64, token string) (bool, error) {
	stored, err := s.client.GetDel(ctx, s.key(action, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1, nil
}
