// Package middleware provides ready-made middleware for the relay router:
// request IDs, structured request logging, CORS, rate limiting, basic
// authentication, security headers, and request body limits.
//
// Every middleware follows the same pattern: a zero-config constructor with
// sensible defaults and a WithConfig variant for fine-grained control. All
// configs accept a Skip function to bypass the middleware per request:
//
//	r := relay.New()
//	r.Use(
//		middleware.RequestID(),
//		middleware.Logging(),
//		middleware.CORSWithConfig(middleware.CORSConfig{
//			AllowOrigins: []string{"https://app.example.com"},
//		}),
//	)
package middleware
