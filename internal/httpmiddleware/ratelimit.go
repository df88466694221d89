package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// idleEviction is how long an IP's bucket may sit untouched before a later
// request may garbage-collect it.
const idleEviction = 10 * time.Minute

// IPLimiter throttles requests per client IP with a token bucket. State is
// in-process only, so limits apply per instance, which is enough to keep one
// misbehaving capture client from starving the rest.
type IPLimiter struct {
	perMinute int

	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewIPLimiter allows perMinute requests per IP, with bursts up to the same
// amount.
func NewIPLimiter(perMinute int) *IPLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &IPLimiter{
		perMinute: perMinute,
		buckets:   make(map[string]*tokenBucket),
	}
}

// Middleware returns the gin handler enforcing the limit. Requests over the
// limit get a 429 and do not reach the route.
func (l *IPLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.take(ip, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
			return
		}
		c.Next()
	}
}

func (l *IPLimiter) take(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		l.evictIdle(now)
		b = &tokenBucket{tokens: float64(l.perMinute), lastSeen: now}
		l.buckets[ip] = b
	}

	b.tokens += now.Sub(b.lastSeen).Minutes() * float64(l.perMinute)
	if max := float64(l.perMinute); b.tokens > max {
		b.tokens = max
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictIdle drops buckets that have not been touched recently. Called only
// when a new IP shows up, so steady traffic pays nothing.
func (l *IPLimiter) evictIdle(now time.Time) {
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleEviction {
			delete(l.buckets, ip)
		}
	}
}
