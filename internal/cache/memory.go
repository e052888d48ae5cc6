package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const defaultShards = 16

type entry[V any] struct {
	value      V
	expiration time.Time
}

type shard[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
}

// Memory is an in-process Store with sliding expiry. There is no janitor:
// an expired entry is removed the next time its key is touched.
type Memory[V any] struct {
	ttl    time.Duration
	now    func() time.Time
	shards []*shard[V]
}

// NewMemory creates a memory store whose entries live ttl since last access.
func NewMemory[V any](ttl time.Duration, opts ...Option) *Memory[V] {
	o := options{now: time.Now, shards: defaultShards}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Memory[V]{
		ttl:    ttl,
		now:    o.now,
		shards: make([]*shard[V], o.shards),
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{entries: make(map[string]*entry[V])}
	}
	return m
}

func (m *Memory[V]) shardFor(key string) *shard[V] {
	h := fnv.New32a()
	h.Write([]byte(key))
	return m.shards[h.Sum32()%uint32(len(m.shards))]
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	s := m.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}

	now := m.now()
	if !now.Before(e.expiration) {
		delete(s.entries, key)
		return zero, false
	}

	e.expiration = now.Add(m.ttl)
	return e.value, true
}

func (m *Memory[V]) Set(_ context.Context, key string, value V) {
	s := m.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &entry[V]{value: value, expiration: m.now().Add(m.ttl)}
}

func (m *Memory[V]) Delete(_ context.Context, key string) {
	s := m.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

// Len returns the number of stored entries, including expired ones that
// have not been touched since expiring.
func (m *Memory[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}
