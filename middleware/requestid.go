package middleware

import (
	"github.com/google/uuid"

	"github.com/relaykit/relay"
)

// requestIDContextKey is used as a key for storing the request ID in context locals.
type requestIDContextKey struct{}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(c *relay.Context) bool
	// Generator creates new request IDs (default: UUID v4)
	Generator func() string
	// HeaderName specifies the header name for the request ID (default: "X-Request-ID")
	HeaderName string
	// UseExisting determines whether to use an existing request ID from the incoming request
	UseExisting bool
}

// RequestID creates a request ID middleware with default configuration.
// It generates a new UUID for each request and includes it in both context
// locals and response headers.
func RequestID() relay.Middleware {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig creates a request ID middleware with custom configuration.
// The ID is stored on the context for downstream middleware (loggers pick it
// up automatically) and added to response headers for client-side tracing.
func RequestIDWithConfig(cfg RequestIDConfig) relay.Middleware {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}

	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return func(c *relay.Context, next relay.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return next()
		}

		var requestID string

		if cfg.UseExisting {
			if existingID := c.Request().Header.Get(cfg.HeaderName); existingID != "" {
				requestID = existingID
			}
		}

		if requestID == "" {
			requestID = cfg.Generator()
		}

		c.Set(requestIDContextKey{}, requestID)
		c.SetHeader(cfg.HeaderName, requestID)

		return next()
	}
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and a boolean indicating whether it was found.
func GetRequestID(c *relay.Context) (string, bool) {
	id, ok := c.Get(requestIDContextKey{}).(string)
	return id, ok
}
