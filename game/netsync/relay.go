package netsync

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Relay throttles pose reports per sender and keeps the last accepted pose
// of each.
type Relay struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	last     map[string]Pose
}

// NewRelay accepts up to hz reports per second per sender. hz <= 0 disables
// throttling.
func NewRelay(hz float64) *Relay {
	r := &Relay{
		limit:    rate.Inf,
		burst:    1,
		limiters: make(map[string]*rate.Limiter),
		last:     make(map[string]Pose),
	}
	if hz > 0 {
		r.limit = rate.Limit(hz)
	}
	return r
}

// Accept records p if the sender is within its rate at now. Rejected
// reports are dropped and do not update Last.
func (r *Relay) Accept(p Pose, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	lim, ok := r.limiters[p.ID]
	if !ok {
		lim = rate.NewLimiter(r.limit, r.burst)
		r.limiters[p.ID] = lim
	}
	if !lim.AllowN(now, 1) {
		return false
	}
	r.last[p.ID] = p
	return true
}

// Last returns the most recent accepted pose of id.
func (r *Relay) Last(id string) (Pose, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.last[id]
	return p, ok
}

// Forget drops everything known about id.
func (r *Relay) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, id)
	delete(r.last, id)
}
