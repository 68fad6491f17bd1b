// Package redisdb stores committed state in Redis, one string key per entity.
package redisdb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"
	"github.com/streamingfast/algebra-analytics/state"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Store struct {
	client *goredis.Client
	prefix string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}

	return NewFromClient(rdb, cfg.Prefix), nil
}

func NewFromClient(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, state.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Commit applies every delta inside a single MULTI/EXEC.
func (s *Store) Commit(ctx context.Context, deltas []state.StateDelta) error {
	for _, delta := range deltas {
		if delta.Op != "c" && delta.Op != "u" && delta.Op != "d" {
			return fmt.Errorf("invalid op %q for key %q", delta.Op, delta.Key)
		}
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, delta := range deltas {
			if delta.Op == "d" {
				pipe.Del(ctx, s.key(delta.Key))
				continue
			}
			pipe.Set(ctx, s.key(delta.Key), delta.NewValue, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("executing transaction of %d deltas: %w", len(deltas), err)
	}
	return nil
}

// ForEach scans the keys of table and walks them in byte order.
func (s *Store) ForEach(ctx context.Context, table string, f func(key string, value []byte) error) error {
	pattern := s.key(table) + ":*"

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning %s: %w", pattern, err)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", key, err)
		}
		if err := f(key[len(s.prefix):], value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
