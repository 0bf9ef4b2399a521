package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session hashes.
const DefaultRedisPrefix = "schoolhub:session:"

// RedisStore keeps each session in one hash with the fields accessToken
// and user. Writes replace the hash inside MULTI/EXEC so readers never see
// a half-written session.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A zero ttl keeps sessions until they
// are cleared.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(sid string) string { return s.prefix + sid }

func (s *RedisStore) ReadEntries(ctx context.Context, sid string) (Entries, error) {
	vals, err := s.client.HMGet(ctx, s.key(sid), TokenKey, UserKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Entries{}, err
	}

	var e Entries
	if len(vals) == 2 {
		e.Token, _ = vals[0].(string)
		e.User, _ = vals[1].(string)
	}
	return e, nil
}

func (s *RedisStore) WriteEntries(ctx context.Context, sid string, e Entries) error {
	key := s.key(sid)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, TokenKey, e.Token, UserKey, e.User)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

func (s *RedisStore) EraseEntries(ctx context.Context, sid string) error {
	return s.client.Del(ctx, s.key(sid)).Err()
}
