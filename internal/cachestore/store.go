package cachestore

import (
	"context"
	"fmt"

	"github.com/starford/chefgenie/internal/apperr"
)

// Store is a single named cache.
type Store interface {
	Name() string
	// Match returns the entry stored under key. ok is false on a miss.
	Match(ctx context.Context, key string) (e *Entry, ok bool, err error)
	// Put stores e under e.Key(), replacing any previous entry.
	Put(ctx context.Context, e Entry) error
	// PutAll stores every entry or none of them.
	PutAll(ctx context.Context, entries []Entry) error
	// Keys returns the stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)
}

// Storage manages named stores.
type Storage interface {
	// Open returns the store called name, creating it if needed.
	Open(ctx context.Context, name string) (Store, error)
	// Names returns store names in creation order.
	Names(ctx context.Context) ([]string, error)
	// Delete removes a store and its entries. It reports whether the store existed.
	Delete(ctx context.Context, name string) (bool, error)
	Close() error
}

// Drivers accepted by New.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// New opens a Storage for driver. dsn is the SQLite file path or Redis URL
// and is ignored for the memory driver.
func New(ctx context.Context, driver, dsn string) (Storage, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(dsn)
	case DriverRedis:
		return OpenRedis(ctx, dsn)
	default:
		return nil, fmt.Errorf("cachestore: unknown driver %q", driver)
	}
}

func storeGone(name string) error {
	return fmt.Errorf("cachestore: %q: %w", name, apperr.ErrStoreNotFound)
}
