package ratelimit

import (
	"sync"
	"time"
)

const (
	cleanupInterval = 5 * time.Minute
	retention       = 24 * time.Hour
)

// Limiter is a sliding-window attempt counter keyed by an arbitrary string,
// typically a client address.
type Limiter struct {
	attempts map[string][]time.Time
	mu       sync.Mutex
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewLimiter() *Limiter {
	l := &Limiter{
		attempts: make(map[string][]time.Time),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *Limiter) Allow(key string, maxAttempts int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)

	var valid []time.Time
	for _, ts := range l.attempts[key] {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= maxAttempts {
		l.attempts[key] = valid
		return false
	}

	l.attempts[key] = append(valid, now)
	return true
}

func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}

// Stop ends the background cleanup. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, attempts := range l.attempts {
		var valid []time.Time
		for _, ts := range attempts {
			if now.Sub(ts) < retention {
				valid = append(valid, ts)
			}
		}
		if len(valid) == 0 {
			delete(l.attempts, key)
		} else {
			l.attempts[key] = valid
		}
	}
}
