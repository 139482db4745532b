package memory

import (
	"context"
	"sync"
	"time"

	"treasury/internal/ratelimit"
)

// Store is a process-local sliding window store. Limits are per replica.
type Store struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func New() *Store {
	return &Store{windows: make(map[string][]time.Time)}
}

func (s *Store) Allow(_ context.Context, key string, limit ratelimit.Limit, now time.Time) (ratelimit.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamps := expire(s.windows[key], now.Add(-limit.Window))
	result := ratelimit.Result{Limit: limit.Requests}
	if len(stamps) < limit.Requests {
		stamps = append(stamps, now)
		result.Allowed = true
		result.Remaining = limit.Requests - len(stamps)
	}
	if len(stamps) == 0 {
		delete(s.windows, key)
		result.ResetAt = now.Add(limit.Window)
		return result, nil
	}
	s.windows[key] = stamps
	result.ResetAt = stamps[0].Add(limit.Window)
	return result, nil
}

// expire drops timestamps at or before cutoff. stamps is ordered.
func expire(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
