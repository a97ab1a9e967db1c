package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps credentials in Redis so a fleet of simulated agents can
// share one session. Same shape as FileStore; one JSON value per key.
type RedisStore struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedisStore(addr, password, key string) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisStore{client: c, key: key, ctx: context.Background()}
}

func (s *RedisStore) Load() (Credentials, error) {
	b, err := s.client.Get(s.ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Credentials{}, nil
		}
		return Credentials{}, err
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

func (s *RedisStore) Save(c Credentials) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.client.Set(s.ctx, s.key, b, 0).Err()
}

func (s *RedisStore) Clear() error {
	return s.client.Del(s.ctx, s.key).Err()
}
