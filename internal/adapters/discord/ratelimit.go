package discord

import (
	"sync"
	"time"
)

// userLimiter: un intento por usuario cada win.
type userLimiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	win  time.Duration
	now  func() time.Time
}

func newUserLimiter(window time.Duration) *userLimiter {
	return &userLimiter{next: map[string]time.Time{}, win: window, now: time.Now}
}

func (l *userLimiter) Allow(userID string) bool {
	if l.win <= 0 {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.next[userID]; ok && now.Before(until) {
		return false
	}
	l.next[userID] = now.Add(l.win)
	if len(l.next) > 512 {
		l.prune(now)
	}
	return true
}

func (l *userLimiter) prune(now time.Time) {
	for id, until := range l.next {
		if !now.Before(until) {
			delete(l.next, id)
		}
	}
}
