package middleware

import (
	"net/http"

	"github.com/relaykit/relay"
)

// BodyLimitConfig configures the request body limit middleware.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(c *relay.Context) bool

	// MaxSize is the maximum allowed body size in bytes (default: 4MB)
	MaxSize int64

	// ErrorHandler handles requests that exceed the size limit
	ErrorHandler func(c *relay.Context, contentLength, maxSize int64) error

	// DisableContentLengthCheck skips the Content-Length header check and
	// only enforces the limit during body reading
	DisableContentLengthCheck bool
}

// BodyLimit creates a body limit middleware with the default 4MB limit.
func BodyLimit() relay.Middleware {
	return BodyLimitWithConfig(BodyLimitConfig{})
}

// BodyLimitWithSize creates a body limit middleware with a specific limit.
func BodyLimitWithSize(maxSize int64) relay.Middleware {
	return BodyLimitWithConfig(BodyLimitConfig{MaxSize: maxSize})
}

// BodyLimitWithConfig creates a body limit middleware with custom
// configuration. Oversized requests are rejected up front when they declare
// a Content-Length; otherwise the body reader enforces the limit and the
// handler's read fails once the limit is crossed.
func BodyLimitWithConfig(cfg BodyLimitConfig) relay.Middleware {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 4 << 20
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *relay.Context, contentLength, maxSize int64) error {
			details := map[string]any{"limit": maxSize}
			if contentLength > 0 {
				details["size"] = contentLength
			}
			return relay.ErrRequestEntityTooLarge.WithDetails(details)
		}
	}

	return func(c *relay.Context, next relay.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return next()
		}

		req := c.Request()

		if !cfg.DisableContentLengthCheck && req.ContentLength > cfg.MaxSize {
			return cfg.ErrorHandler(c, req.ContentLength, cfg.MaxSize)
		}

		if req.Body != nil {
			req.Body = http.MaxBytesReader(c.ResponseWriter(), req.Body, cfg.MaxSize)
		}

		return next()
	}
}
