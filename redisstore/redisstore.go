// Package redisstore provides a redis key-value storage implementation.
//
// RedisStore allows storing, retrieving, and deleting client state keyed
// by a string. Values never expire; an optional prefix keeps several
// storefront profiles apart on the same redis database.
package redisstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a redis backed storage for client state.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

type config func(*RedisStore)

// WithPrefix prepends prefix to every key. (default "".)
func WithPrefix(prefix string) config {
	return config(func(s *RedisStore) {
		s.prefix = prefix
	})
}

// New creates and returns a new RedisStore instance.
func New(rdb *redis.Client, cfgs ...config) *RedisStore {
	s := &RedisStore{rdb: rdb}
	for _, cfg := range cfgs {
		cfg(s)
	}
	return s
}

// Get retrieves the data associated with the given key. Returns the data,
// a boolean indicating whether the key was found, and an error.
func (s *RedisStore) Get(key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(context.Background(), s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []byte{}, false, nil
		}
		return []byte{}, false, err
	}

	return data, true, nil
}

// Set stores the data under the given key without expiration. If a value
// with the same key already exists, it is overwritten.
func (s *RedisStore) Set(key string, data []byte) error {
	return s.rdb.Set(context.Background(), s.prefix+key, data, 0).Err()
}

// Delete removes the data associated with the given key. If the key does
// not exist, this is a no-op.
func (s *RedisStore) Delete(key string) error {
	return s.rdb.Del(context.Background(), s.prefix+key).Err()
}
