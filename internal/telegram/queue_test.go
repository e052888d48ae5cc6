package telegram

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gotd/td/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omriShneor/telcal/internal/bot"
)

func TestConversationQueue_OrderPerConversation(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	seen := map[string][]string{}
	q := newConversationQueue(context.Background(), func(_ context.Context, u bot.Update) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen[u.ConversationID] = append(seen[u.ConversationID], u.Text)
		mu.Unlock()
	})

	for _, text := range []string{"1", "2", "3", "4", "5"} {
		q.Push(bot.Update{ConversationID: "a", Text: text})
		q.Push(bot.Update{ConversationID: "b", Text: text})
	}
	q.Wait()

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, seen["a"])
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, seen["b"])
}

func TestConversationQueue_ConversationsRunInParallel(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	started := make(chan string, 2)
	q := newConversationQueue(context.Background(), func(_ context.Context, u bot.Update) {
		started <- u.ConversationID
		<-release
	})

	q.Push(bot.Update{ConversationID: "a"})
	q.Push(bot.Update{ConversationID: "b"})

	// Both handlers are blocked at once, so neither waits for the other.
	got := []string{<-started, <-started}
	assert.ElementsMatch(t, []string{"a", "b"}, got)

	close(release)
	q.Wait()
}

func TestConversationQueue_RestartsAfterDrain(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	count := 0
	q := newConversationQueue(context.Background(), func(context.Context, bot.Update) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	q.Push(bot.Update{ConversationID: "a"})
	q.Wait()
	q.Push(bot.Update{ConversationID: "a"})
	q.Wait()

	assert.Equal(t, 2, count)
	assert.Empty(t, q.backlog)
}

func TestFileSessionStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "telegram.session")
	storage := &FileSessionStorage{Path: path}

	_, err := storage.LoadSession(ctx)
	assert.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, storage.StoreSession(ctx, []byte(`{"dc":2}`)))
	data, err := storage.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"dc":2}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, storage.StoreSession(ctx, []byte(`{"dc":4}`)))
	data, err = storage.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"dc":4}`, string(data))

	require.NoError(t, os.WriteFile(path, nil, 0600))
	_, err = storage.LoadSession(ctx)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestNewClient_Validation(t *testing.T) {
	handler := HandlerFunc(func(context.Context, bot.Update) {})

	_, err := NewClient(ClientConfig{APIHash: "hash", BotToken: "token", Handler: handler})
	assert.Error(t, err)
	_, err = NewClient(ClientConfig{APIID: 1, APIHash: "hash", Handler: handler})
	assert.Error(t, err)
	_, err = NewClient(ClientConfig{APIID: 1, APIHash: "hash", BotToken: "token"})
	assert.Error(t, err)

	c, err := NewClient(ClientConfig{APIID: 1, APIHash: "hash", BotToken: "token", Handler: handler})
	require.NoError(t, err)

	err = c.Send(context.Background(), bot.Message{ConversationID: "42", Text: "hi"})
	assert.ErrorIs(t, err, ErrNotConnected)
}
