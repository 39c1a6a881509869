package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

// Route is a registered (method, pattern, middleware, handler) tuple. Routes
// are created during application setup, stored in the route table, and never
// mutated afterwards.
type Route struct {
	method  string
	pattern *Pattern
	handler Handler
	chain   Chain
}

// Method returns the HTTP method the route was registered for, or "ANY".
func (rt *Route) Method() string {
	return rt.method
}

// Pattern returns the raw path template of the route.
func (rt *Route) Pattern() string {
	return rt.pattern.String()
}

// RouteInfo describes one effective route for introspection.
type RouteInfo struct {
	Method  string
	Pattern string
}

// ErrorHandler handles errors that reach the top of a dispatch.
type ErrorHandler func(c *Context, err error)

// scopedMiddleware is middleware bound to a path scope rather than a route.
type scopedMiddleware struct {
	pattern *Pattern
	mws     []Middleware
}

// Router resolves requests against its route table and dispatches them
// through composed middleware chains. Each Router owns its table; callers
// construct and own one per application instance, so independent routers can
// coexist in one process.
//
// Registration is not synchronized with serving: build the table before the
// router starts handling traffic, or provide external synchronization.
type Router struct {
	tree             *tree
	global           []Middleware
	scoped           []scopedMiddleware
	errorHandler     ErrorHandler
	notFound         Handler
	methodNotAllowed Handler
	logger           *slog.Logger
	strict           bool
	routed           bool
}

// New creates a Router with the given options.
func New(opts ...Option) *Router {
	r := &Router{
		errorHandler:     defaultErrorHandler,
		notFound:         defaultNotFound,
		methodNotAllowed: defaultMethodNotAllowed,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.tree = newTree(r.strict)
	return r
}

func defaultNotFound(c *Context) error {
	return ErrNotFound
}

func defaultMethodNotAllowed(c *Context) error {
	return ErrMethodNotAllowed
}

// Use appends global middleware. All middleware must be registered before
// the first route so that every route's chain is composed deterministically.
func (r *Router) Use(mws ...Middleware) {
	if r.routed {
		panic("relay: all middlewares must be defined before routes on a router")
	}
	r.global = append(r.global, mws...)
}

// UseOn appends middleware scoped to a path pattern. The middleware runs for
// every route the scope covers, and for unmatched requests whose path the
// scope matches. The bare pattern "*" is shorthand for "/*".
func (r *Router) UseOn(pattern string, mws ...Middleware) {
	if r.routed {
		panic("relay: all middlewares must be defined before routes on a router")
	}
	if pattern == "*" {
		pattern = "/*"
	}
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	r.scoped = append(r.scoped, scopedMiddleware{pattern: p, mws: mws})
}

// Handle registers a handler for the given method and pattern. Method "ANY"
// (or "*") registers for the whole method set. A malformed pattern fails
// only this registration; previously registered routes are unaffected.
// Re-registering an identical (method, pattern) replaces the previous entry
// unless the router was built with WithStrictRegistration.
func (r *Router) Handle(method, pattern string, handler Handler, mws ...Middleware) error {
	return r.handle(method, pattern, handler, nil, mws)
}

// handle is the registration core shared with groups: groupMws occupy the
// scope slot between global and route-specific middleware.
func (r *Router) handle(method, pattern string, handler Handler, groupMws, routeMws []Middleware) error {
	if handler == nil {
		return fmt.Errorf("%w: %s %s", ErrNilHandler, method, pattern)
	}

	method = strings.ToUpper(method)
	mask, ok := methodMap[method]
	if !ok {
		if method != "ANY" && method != "*" {
			return fmt.Errorf("%w: %q", ErrInvalidMethod, method)
		}
		method, mask = "ANY", mANY
	}

	p, err := Compile(pattern)
	if err != nil {
		return err
	}

	rt := &Route{method: method, pattern: p, handler: handler}
	rt.chain = composeChain(handler, r.global, r.scopeFor(p), groupMws, routeMws)

	if err := r.tree.register(mask, rt); err != nil {
		return fmt.Errorf("%w: %s %s", err, method, pattern)
	}
	r.routed = true
	return nil
}

// scopeFor collects scoped middleware covering every path the pattern can
// match, in declaration order.
func (r *Router) scopeFor(p *Pattern) []Middleware {
	var mws []Middleware
	for _, s := range r.scoped {
		if s.pattern.covers(p) {
			mws = append(mws, s.mws...)
		}
	}
	return mws
}

// covers reports whether every path matchable by route is also matched by
// the scope pattern.
func (s *Pattern) covers(route *Pattern) bool {
	for _, rsegs := range route.expansions {
		matched := false
		for _, ssegs := range s.expansions {
			if coversSegs(ssegs, rsegs) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func coversSegs(scope, route []segment) bool {
	for i, ss := range scope {
		if ss.kind == segWildcard {
			return true
		}
		if i >= len(route) {
			return false
		}
		rs := route[i]
		switch ss.kind {
		case segStatic:
			if rs.kind != segStatic || rs.value != ss.value {
				return false
			}
		case segParam:
			// A param spans exactly one segment; a route wildcard may span
			// several, so it is not covered.
			if rs.kind == segWildcard {
				return false
			}
		}
	}
	return len(scope) == len(route)
}

// Get registers a handler for GET requests. It panics on a malformed
// pattern; use Handle to treat registration errors as recoverable.
func (r *Router) Get(pattern string, handler Handler, mws ...Middleware) {
	r.must(http.MethodGet, pattern, handler, mws)
}

// Post registers a handler for POST requests.
func (r *Router) Post(pattern string, handler Handler, mws ...Middleware) {
	r.must(http.MethodPost, pattern, handler, mws)
}

// Put registers a handler for PUT requests.
func (r *Router) Put(pattern string, handler Handler, mws ...Middleware) {
	r.must(http.MethodPut, pattern, handler, mws)
}

// Patch registers a handler for PATCH requests.
func (r *Router) Patch(pattern string, handler Handler, mws ...Middleware) {
	r.must(http.MethodPatch, pattern, handler, mws)
}

// Delete registers a handler for DELETE requests.
func (r *Router) Delete(pattern string, handler Handler, mws ...Middleware) {
	r.must(http.MethodDelete, pattern, handler, mws)
}

// Options registers a handler for OPTIONS requests.
func (r *Router) Options(pattern string, handler Handler, mws ...Middleware) {
	r.must(http.MethodOptions, pattern, handler, mws)
}

// Head registers a handler for HEAD requests.
func (r *Router) Head(pattern string, handler Handler, mws ...Middleware) {
	r.must(http.MethodHead, pattern, handler, mws)
}

// Any registers a handler for the whole method set.
func (r *Router) Any(pattern string, handler Handler, mws ...Middleware) {
	r.must("ANY", pattern, handler, mws)
}

func (r *Router) must(method, pattern string, handler Handler, mws []Middleware) {
	if err := r.handle(method, pattern, handler, nil, mws); err != nil {
		panic(err)
	}
}

// Lookup resolves a method and path against the route table without
// dispatching. Matching is read-only and safe for concurrent use.
func (r *Router) Lookup(method, path string) MatchResult {
	mask, ok := methodMap[strings.ToUpper(method)]
	if !ok {
		return MatchResult{}
	}
	return r.tree.match(mask, path)
}

// Routes returns the effective registered routes. Shadowed registrations do
// not appear; routes registered for the whole method set appear once with
// method "ANY".
func (r *Router) Routes() []RouteInfo {
	seen := make(map[RouteInfo]struct{})
	r.tree.walk(func(eps endpoints) {
		for _, m := range methodOrder {
			ep := eps[m]
			if ep == nil {
				continue
			}
			seen[RouteInfo{Method: ep.route.method, Pattern: ep.route.Pattern()}] = struct{}{}
		}
	})

	routes := make([]RouteInfo, 0, len(seen))
	for info := range seen {
		routes = append(routes, info)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ww := &responseWriter{ResponseWriter: w}

	path := req.URL.Path
	if path == "" {
		path = "/"
	}

	var res MatchResult
	mask, methodKnown := methodMap[strings.ToUpper(req.Method)]
	if methodKnown {
		res = r.tree.match(mask, path)
	}

	c := newContext(ww, req, res)

	// Panic recovery: a panicking handler must not take down concurrently
	// in-flight requests.
	defer func() {
		if v := recover(); v != nil {
			err := toError(v)
			r.logger.ErrorContext(req.Context(), "panic recovered",
				slog.String("method", req.Method),
				slog.String("path", path),
				slog.Any("error", err),
			)
			if !ww.Written() {
				c.discardBody()
				r.errorHandler(c, err)
				_ = c.flush()
			}
		}
	}()

	var ch Chain
	switch {
	case res.Matched():
		ch = res.route.chain
	case res.MethodNotAllowed(), !methodKnown:
		if allowed := res.AllowedMethods(); len(allowed) > 0 {
			ww.Header().Set("Allow", strings.Join(allowed, ", "))
		}
		ch = r.fallbackChain(path, r.methodNotAllowed)
	default:
		ch = r.fallbackChain(path, r.notFound)
	}

	if err := ch.run(c); err != nil {
		// A cancelled request gets no response; the client is gone.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		if errors.Is(err, ErrDoubleDispatch) || errors.Is(err, ErrResponseSent) {
			r.logger.ErrorContext(req.Context(), "dispatch protocol violation",
				slog.String("method", req.Method),
				slog.String("path", path),
				slog.Any("error", err),
			)
		}
		if !ww.Written() {
			// Whatever the chain buffered is void; the boundary owns the reply.
			c.discardBody()
			r.errorHandler(c, err)
			if ferr := c.flush(); ferr != nil {
				r.logger.DebugContext(req.Context(), "response write failed",
					slog.String("path", path),
					slog.Any("error", ferr),
				)
			}
		}
		return
	}

	if err := c.flush(); err != nil {
		r.logger.DebugContext(req.Context(), "response write failed",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}
}

// fallbackChain composes the chain for requests that resolved to no route:
// global middleware plus every scope matching the concrete path, around the
// given terminal handler. Route-specific middleware never runs here.
func (r *Router) fallbackChain(path string, terminal Handler) Chain {
	segs, _, ok := normalizePath(path)
	if !ok {
		return composeChain(terminal, r.global)
	}
	var scoped []Middleware
	for _, s := range r.scoped {
		if s.pattern.matchesPath(segs) {
			scoped = append(scoped, s.mws...)
		}
	}
	return composeChain(terminal, r.global, scoped)
}
