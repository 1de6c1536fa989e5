package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// writesPerMinute caps mutating requests per client IP.
	writesPerMinute = 60

	limiterCleanupEvery = 5 * time.Minute
	limiterStaleAfter   = 10 * time.Minute
)

// rateLimiter tracks mutating-request counts per client IP over a
// fixed one minute window.
type rateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*requestWindow
	stopCh   chan struct{}
	stopOnce sync.Once
}

type requestWindow struct {
	seen     time.Time
	requests int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		windows: make(map[string]*requestWindow),
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// allow records a mutating request from clientIP and reports whether
// it is within the limit. Rejections are counted in metrics.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.seen) > time.Minute {
		rl.windows[clientIP] = &requestWindow{seen: now, requests: 1}
		return true
	}

	w.requests++
	w.seen = now
	if w.requests > writesPerMinute {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStale()
		case <-rl.stopCh:
			return
		}
	}
}

// dropStale forgets IPs that have been quiet long enough that their
// window no longer matters.
func (rl *rateLimiter) dropStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-limiterStaleAfter)
	for ip, w := range rl.windows {
		if w.seen.Before(cutoff) {
			delete(rl.windows, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}
