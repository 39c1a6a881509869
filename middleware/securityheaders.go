package middleware

import (
	"github.com/relaykit/relay"
)

// SecurityHeadersConfig configures the security headers middleware.
type SecurityHeadersConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(c *relay.Context) bool

	// ContentTypeOptions controls X-Content-Type-Options header
	ContentTypeOptions string

	// FrameOptions controls X-Frame-Options header
	FrameOptions string

	// StrictTransportSecurity controls Strict-Transport-Security header
	StrictTransportSecurity string

	// ContentSecurityPolicy controls Content-Security-Policy header
	ContentSecurityPolicy string

	// ReferrerPolicy controls Referrer-Policy header
	ReferrerPolicy string

	// PermissionsPolicy controls Permissions-Policy header
	PermissionsPolicy string

	// CustomHeaders allows adding additional security headers
	CustomHeaders map[string]string

	// IsDevelopment disables HSTS for local development over plain HTTP
	IsDevelopment bool
}

// Predefined security configurations.
var (
	// StrictSecurity provides maximum security with strict policies.
	StrictSecurity = SecurityHeadersConfig{
		ContentTypeOptions:      "nosniff",
		FrameOptions:            "DENY",
		StrictTransportSecurity: "max-age=63072000; includeSubDomains; preload",
		ContentSecurityPolicy:   "default-src 'none'; script-src 'self'; style-src 'self'; img-src 'self'; connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
		ReferrerPolicy:          "no-referrer",
		PermissionsPolicy:       "camera=(), geolocation=(), microphone=(), payment=(), usb=()",
	}

	// BalancedSecurity provides good security with broad compatibility.
	BalancedSecurity = SecurityHeadersConfig{
		ContentTypeOptions:      "nosniff",
		FrameOptions:            "SAMEORIGIN",
		StrictTransportSecurity: "max-age=31536000; includeSubDomains",
		ContentSecurityPolicy:   "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:",
		ReferrerPolicy:          "strict-origin-when-cross-origin",
		PermissionsPolicy:       "camera=(), geolocation=(), microphone=()",
	}
)

// SecurityHeaders creates a security headers middleware with the balanced
// default configuration.
func SecurityHeaders() relay.Middleware {
	return SecurityHeadersWithConfig(BalancedSecurity)
}

// SecurityHeadersWithConfig creates a security headers middleware with
// custom configuration. Headers are attached before the chain continues so
// handlers can still override individual values.
func SecurityHeadersWithConfig(cfg SecurityHeadersConfig) relay.Middleware {
	return func(c *relay.Context, next relay.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return next()
		}

		setIfNotEmpty(c, "X-Content-Type-Options", cfg.ContentTypeOptions)
		setIfNotEmpty(c, "X-Frame-Options", cfg.FrameOptions)
		setIfNotEmpty(c, "Content-Security-Policy", cfg.ContentSecurityPolicy)
		setIfNotEmpty(c, "Referrer-Policy", cfg.ReferrerPolicy)
		setIfNotEmpty(c, "Permissions-Policy", cfg.PermissionsPolicy)

		if !cfg.IsDevelopment {
			setIfNotEmpty(c, "Strict-Transport-Security", cfg.StrictTransportSecurity)
		}

		for k, v := range cfg.CustomHeaders {
			setIfNotEmpty(c, k, v)
		}

		return next()
	}
}

func setIfNotEmpty(c *relay.Context, key, value string) {
	if value != "" {
		c.SetHeader(key, value)
	}
}
