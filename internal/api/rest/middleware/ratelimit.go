package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dtroode/videotube-server/internal/api/rest/handler"
	"github.com/dtroode/videotube-server/internal/apierrors"
	"github.com/dtroode/videotube-server/internal/logger"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit throttles requests per client IP with a token bucket.
type RateLimit struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	swept    time.Time
	rps      rate.Limit
	burst    int
	now      func() time.Time
	logger   *logger.Logger
}

// NewRateLimit creates a limiter allowing rps requests per second with the given burst per client.
func NewRateLimit(rps float64, burst int, logger *logger.Logger) *RateLimit {
	return &RateLimit{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		logger:   logger,
	}
}

// Handle rejects the request with 429 when the client exceeded its budget.
func (r *RateLimit) Handle(c *gin.Context) {
	ip := c.ClientIP()
	if !r.limiter(ip).Allow() {
		r.logger.Info("Rate limit: request rejected",
			"client_ip", ip,
			"path", c.Request.URL.Path)
		handler.WriteError(c, r.logger, apierrors.NewErrTooManyRequests())
		return
	}
	c.Next()
}

func (r *RateLimit) limiter(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.swept) > limiterIdleTTL {
		for key, v := range r.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(r.visitors, key)
			}
		}
		r.swept = now
	}

	v, ok := r.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}
