package middleware

import (
	"log/slog"
	"time"

	"github.com/relaykit/relay"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(c *relay.Context) bool

	// Logger is the slog logger to use (default: slog.Default())
	Logger *slog.Logger

	// LogLevel for request logging (default: slog.LevelInfo)
	LogLevel slog.Level

	// SlowRequestThreshold logs slow requests at warning level (default: 5s)
	SlowRequestThreshold time.Duration

	// Component name added to every log record
	Component string
}

// Logging creates a request logging middleware with default configuration.
// It logs method, path, matched route pattern, status, and latency for every
// request, and includes the request ID when the RequestID middleware ran
// earlier in the chain.
func Logging() relay.Middleware {
	return LoggingWithConfig(LoggingConfig{})
}

// LoggingWithLogger creates a logging middleware with a custom logger.
func LoggingWithLogger(log *slog.Logger) relay.Middleware {
	return LoggingWithConfig(LoggingConfig{Logger: log})
}

// LoggingWithConfig creates a request logging middleware with custom configuration.
func LoggingWithConfig(cfg LoggingConfig) relay.Middleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}

	log := cfg.Logger
	if cfg.Component != "" {
		log = log.With(slog.String("component", cfg.Component))
	}

	return func(c *relay.Context, next relay.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return next()
		}

		start := time.Now()
		err := next()
		latency := time.Since(start)

		attrs := []slog.Attr{
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.Duration("latency", latency),
		}
		if pattern := c.RoutePattern(); pattern != "" {
			attrs = append(attrs, slog.String("route", pattern))
		}
		if status := c.ResponseStatus(); status != 0 {
			attrs = append(attrs, slog.Int("status", status))
		}
		if id, ok := GetRequestID(c); ok {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		}

		level := cfg.LogLevel
		switch {
		case err != nil:
			level = slog.LevelError
		case latency > cfg.SlowRequestThreshold:
			level = slog.LevelWarn
			attrs = append(attrs, slog.Duration("threshold", cfg.SlowRequestThreshold))
		}

		log.LogAttrs(c, level, "request completed", attrs...)

		return err
	}
}
