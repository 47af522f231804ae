package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL  = 10 * time.Minute
	cleanupInterval = time.Minute
)

// visitor is one client's token bucket and when it was last used
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Registry is a thread-safe set of per-client token buckets. Buckets idle for
// longer than the TTL are evicted in the background.
type Registry struct {
	visitors map[string]*visitor
	mutex    sync.Mutex
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates a registry allowing perMinute requests per client per
// minute, with bursts of up to perMinute requests.
func NewRegistry(perMinute int, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}

	r := &Registry{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    max(perMinute, 1),
		idleTTL:  idleTTL,
		done:     make(chan struct{}),
	}

	go r.cleanupIdle()

	return r
}

// Allow reports whether the client identified by key may make a request now
func (r *Registry) Allow(key string) bool {
	return r.get(key).Allow()
}

func (r *Registry) get(key string) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	v, exists := r.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[key] = v
	}
	v.lastSeen = time.Now()

	return v.limiter
}

// evictIdle removes visitors not seen since before now - idleTTL
func (r *Registry) evictIdle(now time.Time) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	evicted := 0
	for key, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.idleTTL {
			delete(r.visitors, key)
			evicted++
		}
	}
	return evicted
}

// cleanupIdle evicts idle visitors periodically until Stop is called
func (r *Registry) cleanupIdle() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case now := <-ticker.C:
			r.evictIdle(now)
		}
	}
}

// Stop ends the background cleanup
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

// Size returns the number of tracked clients (for debugging/monitoring)
func (r *Registry) Size() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.visitors)
}
