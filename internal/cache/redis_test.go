package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pendingValue struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start(), "failed to start miniredis")

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedis_SetGet(t *testing.T) {
	ctx := context.Background()
	_, client := setupMiniRedis(t)
	store := NewRedis[pendingValue](client, "session:", time.Hour, zerolog.Nop())

	store.Set(ctx, "conv-1", pendingValue{Text: "2025-06-20 14:00 / Duration=30. Dentist", UserID: "42"})

	v, ok := store.Get(ctx, "conv-1")
	require.True(t, ok)
	assert.Equal(t, "42", v.UserID)
	assert.Equal(t, "2025-06-20 14:00 / Duration=30. Dentist", v.Text)
}

func TestRedis_UsesPrefix(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniRedis(t)
	store := NewRedis[string](client, "session:", time.Hour, zerolog.Nop())

	store.Set(ctx, "conv-1", "v")

	assert.True(t, mr.Exists("session:conv-1"))
	assert.False(t, mr.Exists("conv-1"))
}

func TestRedis_Missing(t *testing.T) {
	_, client := setupMiniRedis(t)
	store := NewRedis[string](client, "session:", time.Hour, zerolog.Nop())

	v, ok := store.Get(context.Background(), "nope")
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestRedis_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniRedis(t)
	store := NewRedis[string](client, "session:", time.Minute, zerolog.Nop())

	store.Set(ctx, "k", "v")
	mr.FastForward(2 * time.Minute)

	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedis_GetRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniRedis(t)
	store := NewRedis[string](client, "session:", time.Minute, zerolog.Nop())

	store.Set(ctx, "k", "v")
	mr.FastForward(50 * time.Second)

	_, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("session:k"))

	mr.FastForward(50 * time.Second)
	_, ok = store.Get(ctx, "k")
	assert.True(t, ok)
}

func TestRedis_Delete(t *testing.T) {
	ctx := context.Background()
	_, client := setupMiniRedis(t)
	store := NewRedis[string](client, "session:", time.Hour, zerolog.Nop())

	store.Set(ctx, "k", "v")
	store.Delete(ctx, "k")
	store.Delete(ctx, "never-set")

	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestDialRedis(t *testing.T) {
	mr, _ := setupMiniRedis(t)

	client, err := DialRedis(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	client.Close()
}
