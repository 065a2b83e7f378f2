package mw

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter stores a rate limiter for each client IP. Limiters idle for
// longer than idleTTL are dropped on the next sweep.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	b       int
	idleTTL time.Duration
	sweptAt time.Time
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a limiter allowing r events per second with
// bursts of b per IP.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		clients: make(map[string]*client),
		r:       r,
		b:       b,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

// GetLimiter returns the rate limiter for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.sweptAt) > i.idleTTL {
		for k, c := range i.clients {
			if now.Sub(c.lastSeen) > i.idleTTL {
				delete(i.clients, k)
			}
		}
		i.sweptAt = now
	}

	c, ok := i.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(i.r, i.b)}
		i.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// Len returns the number of tracked clients.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.clients)
}

// RateLimiter rejects clients exceeding perSec requests per second (with
// bursts of burst) with 429 and the standard error envelope.
func RateLimiter(perSec float64, burst int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(rate.Limit(perSec), burst)
	limit := strconv.FormatFloat(perSec, 'f', -1, 64)
	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", limit)
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too many requests",
				"message": "Rate limit exceeded, please retry shortly",
			})
			return
		}
		c.Next()
	}
}
