package telegram

import (
	"context"
	"sync"

	"github.com/omriShneor/telcal/internal/bot"
)

// conversationQueue runs updates of one conversation in arrival order while
// different conversations proceed in parallel. A conversation's worker
// exits once its backlog is empty.
type conversationQueue struct {
	ctx    context.Context
	handle func(ctx context.Context, u bot.Update)

	mu      sync.Mutex
	backlog map[string][]bot.Update // key present while a worker runs
	wg      sync.WaitGroup
}

func newConversationQueue(ctx context.Context, handle func(ctx context.Context, u bot.Update)) *conversationQueue {
	return &conversationQueue{
		ctx:     ctx,
		handle:  handle,
		backlog: make(map[string][]bot.Update),
	}
}

// Push enqueues u behind earlier updates of the same conversation.
func (q *conversationQueue) Push(u bot.Update) {
	key := u.ConversationID

	q.mu.Lock()
	pending, running := q.backlog[key]
	q.backlog[key] = append(pending, u)
	if running {
		q.mu.Unlock()
		return
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go q.drain(key)
}

func (q *conversationQueue) drain(key string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		pending := q.backlog[key]
		if len(pending) == 0 {
			delete(q.backlog, key)
			q.mu.Unlock()
			return
		}
		u := pending[0]
		q.backlog[key] = pending[1:]
		q.mu.Unlock()

		q.handle(q.ctx, u)
	}
}

// Wait blocks until every queued update has been handled.
func (q *conversationQueue) Wait() {
	q.wg.Wait()
}
