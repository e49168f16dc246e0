package cachestore

import (
	"context"
	"sort"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Memory is an in-process Storage. It is used by the ask client and tests.
type Memory struct {
	mu     sync.Mutex
	stores *orderedmap.OrderedMap[string, *memoryStore]
}

// Verify *Memory satisfies Storage at compile time.
var _ Storage = (*Memory)(nil)

// NewMemory returns an empty in-memory Storage.
func NewMemory() *Memory {
	return &Memory{stores: orderedmap.New[string, *memoryStore]()}
}

func (m *Memory) Open(_ context.Context, name string) (Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores.Get(name); ok {
		return s, nil
	}
	s := &memoryStore{name: name, entries: make(map[string]Entry)}
	m.stores.Set(name, s)
	return s, nil
}

func (m *Memory) Names(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, m.stores.Len())
	for pair := m.stores.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names, nil
}

func (m *Memory) Delete(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores.Delete(name)
	if ok {
		s.drop()
	}
	return ok, nil
}

func (m *Memory) Close() error { return nil }

type memoryStore struct {
	name    string
	mu      sync.RWMutex
	entries map[string]Entry
	deleted bool
}

func (s *memoryStore) Name() string { return s.name }

func (s *memoryStore) Match(_ context.Context, key string) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

func (s *memoryStore) Put(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return storeGone(s.name)
	}
	s.entries[e.Key()] = stamped(e)
	return nil
}

func (s *memoryStore) PutAll(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return storeGone(s.name)
	}
	for _, e := range entries {
		s.entries[e.Key()] = stamped(e)
	}
	return nil
}

func (s *memoryStore) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *memoryStore) drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = true
	s.entries = make(map[string]Entry)
}

func stamped(e Entry) Entry {
	if e.StoredAt.IsZero() {
		e.StoredAt = time.Now().UTC()
	}
	return e
}
