package middleware

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/relaykit/relay"
)

// basicAuthUserContextKey stores the authenticated username in context locals.
type basicAuthUserContextKey struct{}

// BasicAuthConfig configures the HTTP basic authentication middleware.
type BasicAuthConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(c *relay.Context) bool

	// Realm is sent in the WWW-Authenticate challenge (default: "Restricted")
	Realm string

	// Users maps usernames to bcrypt password hashes. Used when Validator is nil.
	Users map[string]string

	// Validator provides custom credential validation and takes precedence
	// over Users when set.
	Validator func(c *relay.Context, username, password string) bool
}

// BasicAuth creates a basic authentication middleware checking credentials
// against a map of usernames to bcrypt password hashes.
func BasicAuth(users map[string]string) relay.Middleware {
	return BasicAuthWithConfig(BasicAuthConfig{Users: users})
}

// BasicAuthWithConfig creates a basic authentication middleware with custom
// configuration. Unauthenticated requests are rejected with 401 and a
// WWW-Authenticate challenge; the chain never runs for them. On success the
// username is stored on the context for downstream handlers.
func BasicAuthWithConfig(cfg BasicAuthConfig) relay.Middleware {
	if cfg.Realm == "" {
		cfg.Realm = "Restricted"
	}

	if cfg.Validator == nil {
		users := cfg.Users
		cfg.Validator = func(c *relay.Context, username, password string) bool {
			hash, ok := users[username]
			if !ok {
				// Burn comparable time for unknown users to keep timing
				// uniform across the two rejection paths.
				_ = bcrypt.CompareHashAndPassword(unknownUserHash, []byte(password))
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
		}
	}

	challenge := fmt.Sprintf("Basic realm=%q, charset=\"UTF-8\"", cfg.Realm)

	return func(c *relay.Context, next relay.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return next()
		}

		username, password, ok := c.Request().BasicAuth()
		if !ok || !cfg.Validator(c, username, password) {
			c.SetHeader("WWW-Authenticate", challenge)
			return relay.ErrUnauthorized
		}

		c.Set(basicAuthUserContextKey{}, username)
		return next()
	}
}

// BasicAuthUser returns the username authenticated by the BasicAuth
// middleware earlier in the chain.
func BasicAuthUser(c *relay.Context) (string, bool) {
	username, ok := c.Get(basicAuthUserContextKey{}).(string)
	return username, ok
}

// ConstantTimeEquals compares two strings in constant time. Useful for
// Validator implementations holding plaintext secrets.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// unknownUserHash is a bcrypt hash of an unguessable placeholder, compared
// against when the username does not exist.
var unknownUserHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMye1VdLYqJQf9icVvQIedLJSqUZoWJPOJO")
