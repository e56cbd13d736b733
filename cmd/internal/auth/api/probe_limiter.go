package api

import (
	"net"
	"sync"
	"time"
)

// probeSweepAt is the key count above which idle windows are dropped.
const probeSweepAt = 4096

// slidingWindow counts events inside the trailing window.
type slidingWindow struct {
	events []time.Time
}

func (s *slidingWindow) allow(now time.Time, limit int, window time.Duration) bool {
	cut := now.Add(-window)
	dst := s.events[:0]
	for _, t := range s.events {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	s.events = dst

	if len(s.events) >= limit {
		return false
	}
	s.events = append(s.events, now)
	return true
}

func (s *slidingWindow) idle(now time.Time, window time.Duration) bool {
	return len(s.events) == 0 || !s.events[len(s.events)-1].After(now.Add(-window))
}

// probeLimiter caps unauthenticated lookups per client IP, so purchase
// status cannot be scraped email by email. State is per process.
type probeLimiter struct {
	mu     sync.Mutex
	byIP   map[string]*slidingWindow
	limit  int
	window time.Duration
}

func newProbeLimiter(limit int, window time.Duration) *probeLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	return &probeLimiter{
		byIP:   make(map[string]*slidingWindow),
		limit:  limit,
		window: window,
	}
}

// Allow reports whether a lookup from ip at now is permitted. A nil limiter
// or unknown ip always allows.
func (l *probeLimiter) Allow(ip net.IP, now time.Time) bool {
	if l == nil || ip == nil {
		return true
	}
	key := ip.String()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.byIP) > probeSweepAt {
		for k, w := range l.byIP {
			if w.idle(now, l.window) {
				delete(l.byIP, k)
			}
		}
	}

	w, ok := l.byIP[key]
	if !ok {
		w = &slidingWindow{}
		l.byIP[key] = w
	}
	return w.allow(now, l.limit, l.window)
}
