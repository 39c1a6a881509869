package relay

import "log/slog"

// Option configures a Router during creation.
type Option func(*Router)

// WithErrorHandler sets a custom top-level error boundary. The handler
// receives the request context and the error that terminated the dispatch.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Router) {
		if h != nil {
			r.errorHandler = h
		}
	}
}

// WithNotFound sets the terminal handler for requests matching no route.
func WithNotFound(h Handler) Option {
	return func(r *Router) {
		if h != nil {
			r.notFound = h
		}
	}
}

// WithMethodNotAllowed sets the terminal handler for requests whose path
// matched under a different method.
func WithMethodNotAllowed(h Handler) Option {
	return func(r *Router) {
		if h != nil {
			r.methodNotAllowed = h
		}
	}
}

// WithMiddleware adds global middleware to the router.
func WithMiddleware(mws ...Middleware) Option {
	return func(r *Router) {
		r.global = append(r.global, mws...)
	}
}

// WithLogger sets the logger used for panic recovery and dispatch protocol
// violations.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStrictRegistration makes re-registering an identical (method, pattern)
// a registration error instead of the default last-wins replacement.
func WithStrictRegistration() Option {
	return func(r *Router) {
		r.strict = true
	}
}
