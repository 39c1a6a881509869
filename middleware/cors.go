package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/relaykit/relay"
)

// CORSConfig defines configuration options for CORS middleware.
type CORSConfig struct {
	// Skip allows bypassing CORS handling for specific requests
	Skip func(c *relay.Context) bool

	// AllowOrigins specifies allowed origins. Use "*" for all origins.
	// If empty, defaults to allowing all origins ("*")
	AllowOrigins []string

	// AllowMethods specifies allowed HTTP methods.
	// If empty, defaults to GET, HEAD, PUT, PATCH, POST, DELETE
	AllowMethods []string

	// AllowHeaders specifies allowed request headers.
	// If empty, defaults to common headers including Authorization and Content-Type
	AllowHeaders []string

	// ExposeHeaders specifies which headers are exposed to the client
	ExposeHeaders []string

	// AllowCredentials indicates whether credentials (cookies, authorization
	// headers) are allowed. Cannot be used with wildcard origins.
	AllowCredentials bool

	// MaxAge specifies how long preflight responses can be cached (in seconds)
	MaxAge int

	// AllowOriginFunc provides custom origin validation logic.
	// Takes precedence over AllowOrigins when set.
	// Returns the allowed origin value and whether the origin is allowed
	AllowOriginFunc func(origin string) (string, bool)
}

// CORS returns a CORS middleware with default configuration: all origins,
// common HTTP methods, and standard headers. The wildcard default is meant
// for development; production applications should specify exact origins.
func CORS() relay.Middleware {
	return CORSWithConfig(CORSConfig{})
}

// CORSWithConfig returns a CORS middleware with custom configuration.
// Preflight OPTIONS requests are answered directly with 204 and never reach
// the rest of the chain; actual requests get the response headers attached
// before the chain continues.
func CORSWithConfig(cfg CORSConfig) relay.Middleware {
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPut,
			http.MethodPatch,
			http.MethodPost,
			http.MethodDelete,
		}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{
			"Accept",
			"Accept-Language",
			"Content-Language",
			"Content-Type",
			"Authorization",
			"X-Requested-With",
		}
	}

	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")

	return func(c *relay.Context, next relay.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return next()
		}

		origin := c.Request().Header.Get("Origin")
		if origin == "" {
			// Same-origin request, nothing to negotiate.
			return next()
		}

		allowOrigin, allowed := resolveAllowOrigin(cfg, origin)
		if !allowed {
			return next()
		}

		c.SetHeader("Access-Control-Allow-Origin", allowOrigin)
		if allowOrigin != "*" {
			c.SetHeader("Vary", "Origin")
		}
		if cfg.AllowCredentials && allowOrigin != "*" {
			c.SetHeader("Access-Control-Allow-Credentials", "true")
		}
		if exposeHeaders != "" {
			c.SetHeader("Access-Control-Expose-Headers", exposeHeaders)
		}

		// Preflight requests are answered here, short-circuiting the chain.
		if c.Request().Method == http.MethodOptions &&
			c.Request().Header.Get("Access-Control-Request-Method") != "" {
			c.SetHeader("Access-Control-Allow-Methods", allowMethods)
			c.SetHeader("Access-Control-Allow-Headers", allowHeaders)
			if cfg.MaxAge > 0 {
				c.SetHeader("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			return c.NoContent(http.StatusNoContent)
		}

		return next()
	}
}

func resolveAllowOrigin(cfg CORSConfig, origin string) (string, bool) {
	if cfg.AllowOriginFunc != nil {
		return cfg.AllowOriginFunc(origin)
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			// Credentials are incompatible with the wildcard; echo the
			// origin instead so browsers accept the response.
			if cfg.AllowCredentials {
				return origin, true
			}
			return "*", true
		}
		if strings.EqualFold(o, origin) {
			return origin, true
		}
	}
	return "", false
}
