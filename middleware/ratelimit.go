package middleware

import (
	"net"
	"strconv"
	"sync"

	"golang.org/x/time/rate"

	"github.com/relaykit/relay"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(c *relay.Context) bool

	// Rate is the steady-state request rate per key, in requests per second
	Rate rate.Limit

	// Burst is the maximum burst size per key (default: 1)
	Burst int

	// KeyFunc extracts the rate limiting key from a request (default: client IP)
	KeyFunc func(c *relay.Context) string

	// ErrorHandler handles rejected requests (default: 429 Too Many Requests
	// with a Retry-After header)
	ErrorHandler func(c *relay.Context) error

	// SetHeaders controls whether X-RateLimit-* headers are added to responses
	SetHeaders bool
}

// RateLimit creates a rate limiting middleware allowing r requests per
// second with the given burst per client IP.
//
// Rate limiting protects the application from abuse and ensures fair usage
// among clients. Each key gets its own token bucket; buckets are kept for
// the lifetime of the middleware.
func RateLimit(r rate.Limit, burst int) relay.Middleware {
	return RateLimitWithConfig(RateLimitConfig{Rate: r, Burst: burst})
}

// RateLimitWithConfig creates a rate limiting middleware with custom configuration.
func RateLimitWithConfig(cfg RateLimitConfig) relay.Middleware {
	if cfg.Rate <= 0 {
		cfg.Rate = rate.Limit(10)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *relay.Context) error {
			c.SetHeader("Retry-After", "1")
			return relay.ErrTooManyRequests
		}
	}

	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(cfg.Rate, cfg.Burst)
			limiters[key] = l
		}
		return l
	}

	return func(c *relay.Context, next relay.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return next()
		}

		l := limiterFor(cfg.KeyFunc(c))

		if cfg.SetHeaders {
			c.SetHeader("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			c.SetHeader("X-RateLimit-Remaining", strconv.Itoa(int(l.Tokens())))
		}

		if !l.Allow() {
			return cfg.ErrorHandler(c)
		}

		return next()
	}
}

// clientIP extracts the remote host, falling back to the raw RemoteAddr
// when it carries no port.
func clientIP(c *relay.Context) string {
	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}
	return host
}
