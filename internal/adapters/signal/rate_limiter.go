package signal

import (
	"sync"
	"time"

	"github.com/dkeye/yumee/internal/domain"
	"golang.org/x/time/rate"
)

// CallRateLimiter bounds how often one connection may place calls: limit
// calls per interval, refilled evenly. A non-positive limit disables it.
type CallRateLimiter struct {
	mu       sync.Mutex
	limiters map[domain.ConnID]*rate.Limiter
	every    rate.Limit
	burst    int
}

func NewCallRateLimiter(limit int, interval time.Duration) *CallRateLimiter {
	rl := &CallRateLimiter{
		limiters: make(map[domain.ConnID]*rate.Limiter),
		burst:    limit,
	}
	if limit > 0 && interval > 0 {
		rl.every = rate.Every(interval / time.Duration(limit))
	}
	return rl
}

func (rl *CallRateLimiter) Allow(id domain.ConnID) bool {
	if rl.burst <= 0 || rl.every == 0 {
		return true
	}
	rl.mu.Lock()
	lim, ok := rl.limiters[id]
	if !ok {
		lim = rate.NewLimiter(rl.every, rl.burst)
		rl.limiters[id] = lim
	}
	rl.mu.Unlock()
	return lim.Allow()
}

// Forget drops the state kept for a closed connection.
func (rl *CallRateLimiter) Forget(id domain.ConnID) {
	rl.mu.Lock()
	delete(rl.limiters, id)
	rl.mu.Unlock()
}

func (rl *CallRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
