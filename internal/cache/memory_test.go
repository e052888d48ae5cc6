package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)}
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[string](time.Hour)

	m.Set(ctx, "k", "v")

	v, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMemory_MissingKey(t *testing.T) {
	m := NewMemory[int](time.Hour)

	v, ok := m.Get(context.Background(), "missing")
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestMemory_ExpiresLazily(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	m := NewMemory[string](time.Minute, WithClock(clock.Now))

	m.Set(ctx, "k", "v")
	clock.Advance(time.Minute)

	assert.Equal(t, 1, m.Len(), "expired entry stays until touched")

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_AccessExtendsExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	m := NewMemory[string](time.Minute, WithClock(clock.Now))

	m.Set(ctx, "k", "v")
	for range 5 {
		clock.Advance(50 * time.Second)
		_, ok := m.Get(ctx, "k")
		require.True(t, ok)
	}

	clock.Advance(61 * time.Second)
	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_DeleteMissingIsNoop(t *testing.T) {
	m := NewMemory[string](time.Minute)

	assert.NotPanics(t, func() {
		m.Delete(context.Background(), "never-set")
	})
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	m := NewMemory[string](time.Minute, WithClock(clock.Now), WithShards(1))

	m.Set(ctx, "a", "1")
	clock.Advance(30 * time.Second)
	m.Set(ctx, "b", "2")
	m.Delete(ctx, "a")

	_, okA := m.Get(ctx, "a")
	b, okB := m.Get(ctx, "b")
	assert.False(t, okA)
	assert.True(t, okB)
	assert.Equal(t, "2", b)
}

func TestMemory_ConcurrentDistinctKeys(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	m := NewMemory[int](time.Hour)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("conv-%d", i)
			for j := range 100 {
				m.Set(ctx, key, j)
				v, ok := m.Get(ctx, key)
				if !ok || v != j {
					t.Errorf("key %s: got %d, %v", key, v, ok)
					return
				}
			}
			m.Delete(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, m.Len())
}
