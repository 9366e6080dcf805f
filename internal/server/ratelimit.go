package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterStore maintains per-client rate limiters for the credential
// endpoints, evicting entries that have gone quiet.
type limiterStore struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	clients  map[string]*limiterEntry
	lastSwep time.Time
	sweepAge time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(limitPerMinute, burst int, sweepAge time.Duration) *limiterStore {
	if limitPerMinute <= 0 {
		limitPerMinute = 60
	}
	return &limiterStore{
		limit:    rate.Every(time.Minute / time.Duration(limitPerMinute)),
		burst:    burst,
		clients:  map[string]*limiterEntry{},
		lastSwep: time.Now(),
		sweepAge: sweepAge,
	}
}

// Allow reports whether an event for the given key is permitted. Eviction of
// idle entries piggybacks on calls instead of a background goroutine.
func (s *limiterStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.lastSwep) > s.sweepAge {
		cutoff := now.Add(-s.sweepAge)
		for k, entry := range s.clients {
			if entry.lastSeen.Before(cutoff) {
				delete(s.clients, k)
			}
		}
		s.lastSwep = now
	}

	entry, ok := s.clients[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}
