package bot

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/omriShneor/telcal/internal/cache"
)

// limiterIdleTTL evicts a user's limiter once it has been idle long enough
// to have refilled completely.
const limiterIdleTTL = 10 * time.Minute

// userLimiter throttles language-model bound requests per user.
type userLimiter struct {
	perMinute int
	mu        sync.Mutex
	limiters  *cache.Memory[*rate.Limiter]
}

// newUserLimiter returns nil when perMinute is not positive, which disables
// limiting.
func newUserLimiter(perMinute int) *userLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &userLimiter{
		perMinute: perMinute,
		limiters:  cache.NewMemory[*rate.Limiter](limiterIdleTTL),
	}
}

// Allow consumes one token from userID's bucket.
func (l *userLimiter) Allow(ctx context.Context, userID string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	lim, ok := l.limiters.Get(ctx, userID)
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
		l.limiters.Set(ctx, userID, lim)
	}
	l.mu.Unlock()

	return lim.Allow()
}
