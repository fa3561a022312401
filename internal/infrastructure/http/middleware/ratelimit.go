package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alchemorsel/pantrychef/pkg/errors"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket keyed by client IP
type RateLimiter struct {
	name      string
	perMinute int
	burst     int
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter allowing perMinute requests per client.
// Idle clients are forgotten after cleanup; a zero cleanup disables the sweeper.
func NewRateLimiter(name string, perMinute, burst int, cleanup time.Duration, logger *zap.Logger) *RateLimiter {
	if burst <= 0 {
		burst = perMinute
	}
	rl := &RateLimiter{
		name:      name,
		perMinute: perMinute,
		burst:     burst,
		logger:    logger.Named("ratelimit"),
		now:       time.Now,
		clients:   make(map[string]*clientLimiter),
		stop:      make(chan struct{}),
	}
	if cleanup > 0 {
		go rl.sweep(cleanup)
	}
	return rl
}

// Allow reports whether the client may proceed and how many tokens remain
func (rl *RateLimiter) Allow(client string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cl, ok := rl.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60), rl.burst)}
		rl.clients[client] = cl
	}
	cl.lastSeen = now

	allowed := cl.limiter.AllowN(now, 1)
	remaining := int(cl.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining
}

// Handler returns the gin middleware
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.perMinute <= 0 {
			c.Next()
			return
		}

		allowed, remaining := rl.Allow(c.ClientIP())
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			retryAfter := int((time.Minute / time.Duration(rl.perMinute)).Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			rl.logger.Info("Rate limit exceeded", zap.String("limiter", rl.name), zap.String("client", c.ClientIP()))

			appErr := errors.NewTooManyRequestsError(fmt.Sprintf("%d/min", rl.perMinute))
			c.AbortWithStatusJSON(appErr.StatusCode(), errors.ToErrorResponse(appErr, c.GetString(RequestIDKey)))
			return
		}

		c.Next()
	}
}

// Clients returns the number of tracked clients
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Close stops the sweeper
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle(interval)
		}
	}
}

func (rl *RateLimiter) evictIdle(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	for client, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, client)
		}
	}
}
