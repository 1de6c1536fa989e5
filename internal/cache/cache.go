package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cleaner is implemented by caches that can expire entries in bulk.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs a shared cleanup loop over registered caches so each
// cache does not need its own background goroutine.
type Manager struct {
	caches   []Cleaner
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache to the cleanup loop. Not safe to call after
// StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup launches the periodic cleanup goroutine.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		defer close(m.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cleaned := 0
				for _, c := range m.caches {
					cleaned += c.CleanExpired()
				}
				if cleaned > 0 {
					slog.Debug("Cache cleanup removed expired entries", "count", cleaned)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop terminates the cleanup loop and waits for it to exit. Safe to
// call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}
