package httpx

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// bucketSet holds one limiter per key and forgets keys idle for longer
// than idle.
type bucketSet struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	sweptAt time.Time
}

func newBucketSet(limit rate.Limit, burst int, idle time.Duration) *bucketSet {
	return &bucketSet{
		limit:   limit,
		burst:   burst,
		idle:    idle,
		buckets: make(map[string]*bucket),
		sweptAt: time.Now(),
	}
}

// take spends one token for key. When none is left it reports how long until
// the next one.
func (s *bucketSet) take(key string, now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.sweptAt) >= s.idle {
		s.sweep(now)
	}

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	if b.lim.AllowN(now, 1) {
		return 0, true
	}

	missing := 1 - b.lim.TokensAt(now)
	return time.Duration(missing / float64(s.limit) * float64(time.Second)), false
}

func (s *bucketSet) sweep(now time.Time) {
	for k, b := range s.buckets {
		if now.Sub(b.lastSeen) >= s.idle {
			delete(s.buckets, k)
		}
	}
	s.sweptAt = now
}
