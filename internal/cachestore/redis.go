package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/starford/chefgenie/internal/apperr"
)

// redisPrefix namespaces every key this package writes.
const redisPrefix = "chefgenie:cache:"

// Redis is a Storage shared by several gateway replicas. Store names live in
// a sorted set scored by creation time; each store is one hash of key → JSON
// entry.
type Redis struct {
	client *redis.Client
}

// Verify *Redis satisfies Storage at compile time.
var _ Storage = (*Redis)(nil)

// OpenRedis connects to rawURL (redis://...) and pings the server.
func OpenRedis(ctx context.Context, rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cachestore: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cachestore: connect to redis at %s: %w", opts.Addr, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) namesKey() string { return redisPrefix + "stores" }

func (r *Redis) storeKey(name string) string { return redisPrefix + "store:" + name }

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Open(ctx context.Context, name string) (Store, error) {
	z := redis.Z{Score: float64(time.Now().UnixMicro()), Member: name}
	if err := r.client.ZAddNX(ctx, r.namesKey(), z).Err(); err != nil {
		return nil, fmt.Errorf("cachestore: open %q: %w", name, err)
	}
	return &redisStore{r: r, name: name}, nil
}

func (r *Redis) Names(ctx context.Context) ([]string, error) {
	names, err := r.client.ZRange(ctx, r.namesKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("cachestore: names: %w", err)
	}
	return names, nil
}

func (r *Redis) Delete(ctx context.Context, name string) (bool, error) {
	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, r.namesKey(), name)
		pipe.Del(ctx, r.storeKey(name))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("cachestore: delete %q: %w", name, err)
	}
	return removed.Val() > 0, nil
}

type redisStore struct {
	r    *Redis
	name string
}

func (s *redisStore) Name() string { return s.name }

func (s *redisStore) Match(ctx context.Context, key string) (*Entry, bool, error) {
	data, err := s.r.client.HGet(ctx, s.r.storeKey(s.name), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cachestore: match: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("cachestore: decode entry: %w", err)
	}
	return &e, true, nil
}

func (s *redisStore) Put(ctx context.Context, e Entry) error {
	return s.PutAll(ctx, []Entry{e})
}

// redisTxRetries bounds how often PutAll retries when the store list changes
// under its watch.
const redisTxRetries = 5

// PutAll writes every entry in one MULTI/EXEC block. The store list is
// watched, so a concurrent Delete either lands before the existence check
// or aborts the write.
func (s *redisStore) PutAll(ctx context.Context, entries []Entry) error {
	values := make([]any, 0, 2*len(entries))
	for _, e := range entries {
		data, err := json.Marshal(stamped(e))
		if err != nil {
			return fmt.Errorf("cachestore: encode %q: %w", e.Key(), err)
		}
		values = append(values, e.Key(), data)
	}

	put := func(tx *redis.Tx) error {
		if _, err := tx.ZScore(ctx, s.r.namesKey(), s.name).Result(); err != nil {
			if errors.Is(err, redis.Nil) {
				return storeGone(s.name)
			}
			return fmt.Errorf("cachestore: check store: %w", err)
		}
		if len(values) == 0 {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.r.storeKey(s.name), values...)
			return nil
		})
		return err
	}

	for range redisTxRetries {
		err := s.r.client.Watch(ctx, put, s.r.namesKey())
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, apperr.ErrStoreNotFound) {
			return fmt.Errorf("cachestore: put: %w", err)
		}
		return err
	}
	return fmt.Errorf("cachestore: put: %w", redis.TxFailedErr)
}

func (s *redisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.r.client.HKeys(ctx, s.r.storeKey(s.name)).Result()
	if err != nil {
		return nil, fmt.Errorf("cachestore: keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
