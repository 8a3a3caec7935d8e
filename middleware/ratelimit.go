package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// IPLimiter is a per-IP token bucket. Stale entries are removed by Sweep,
// which the scheduler runs periodically.
type IPLimiter struct {
	r        rate.Limit
	b        int
	limiters sync.Map // ip → *ipLimiter
}

// NewIPLimiter allows r requests per second per IP with burst b.
func NewIPLimiter(r rate.Limit, b int) *IPLimiter {
	return &IPLimiter{r: r, b: b}
}

// Allow reports whether ip may make a request at now.
func (l *IPLimiter) Allow(ip string, now time.Time) bool {
	v, ok := l.limiters.Load(ip)
	if !ok {
		v, _ = l.limiters.LoadOrStore(ip, &ipLimiter{limiter: rate.NewLimiter(l.r, l.b)})
	}
	il := v.(*ipLimiter)
	il.lastSeen.Store(now.UnixNano())
	return il.limiter.AllowN(now, 1)
}

// Sweep drops IPs not seen for idle and returns how many were removed.
func (l *IPLimiter) Sweep(now time.Time, idle time.Duration) int {
	cutoff := now.Add(-idle).UnixNano()
	n := 0
	l.limiters.Range(func(k, v interface{}) bool {
		if v.(*ipLimiter).lastSeen.Load() < cutoff {
			l.limiters.Delete(k)
			n++
		}
		return true
	})
	return n
}

// Middleware rejects requests over the limit with 429.
func (l *IPLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
