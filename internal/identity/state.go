package identity

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStateStore keeps OAuth state tokens in redis with a TTL, so a state
// survives across api replicas and expires on its own.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStateStore creates the store.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "classcall:oauthstate:"}
}

// Put stores the state with its return path.
func (s *RedisStateStore) Put(ctx context.Context, state, returnTo string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+state, returnTo, ttl).Err()
}

// Take consumes the state, returning its return path. A missing or expired
// state reports ok=false, not an error.
func (s *RedisStateStore) Take(ctx context.Context, state string) (string, bool, error) {
	returnTo, err := s.client.GetDel(ctx, s.prefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return returnTo, true, nil
}
