package relay

import (
	"net/http"
	"strings"
)

// Group registers routes under a shared path prefix with group-local
// middleware. Groups only append to the router's table, so nested groups
// form a tree by construction.
type Group struct {
	router *Router
	prefix string
	mws    []Middleware
	routed bool
}

// Group creates a route group rooted at prefix and invokes fn with it.
func (r *Router) Group(prefix string, fn func(g *Group)) *Group {
	g := &Group{router: r, prefix: strings.TrimSuffix(prefix, "/")}
	if fn != nil {
		fn(g)
	}
	return g
}

// Group creates a nested group. The child inherits the parent's prefix and
// middleware.
func (g *Group) Group(prefix string, fn func(g *Group)) *Group {
	child := &Group{
		router: g.router,
		prefix: g.prefix + strings.TrimSuffix(prefix, "/"),
		mws:    append([]Middleware(nil), g.mws...),
	}
	if fn != nil {
		fn(child)
	}
	return child
}

// Use appends group-local middleware. Like router-level middleware, it must
// be registered before the group's routes.
func (g *Group) Use(mws ...Middleware) {
	if g.routed {
		panic("relay: all middlewares must be defined before routes on a group")
	}
	g.mws = append(g.mws, mws...)
}

// Handle registers a handler under the group's prefix.
func (g *Group) Handle(method, pattern string, handler Handler, mws ...Middleware) error {
	err := g.router.handle(method, g.join(pattern), handler, g.mws, mws)
	if err == nil {
		g.routed = true
	}
	return err
}

// Get registers a handler for GET requests under the group's prefix.
func (g *Group) Get(pattern string, handler Handler, mws ...Middleware) {
	g.must(http.MethodGet, pattern, handler, mws)
}

// Post registers a handler for POST requests under the group's prefix.
func (g *Group) Post(pattern string, handler Handler, mws ...Middleware) {
	g.must(http.MethodPost, pattern, handler, mws)
}

// Put registers a handler for PUT requests under the group's prefix.
func (g *Group) Put(pattern string, handler Handler, mws ...Middleware) {
	g.must(http.MethodPut, pattern, handler, mws)
}

// Patch registers a handler for PATCH requests under the group's prefix.
func (g *Group) Patch(pattern string, handler Handler, mws ...Middleware) {
	g.must(http.MethodPatch, pattern, handler, mws)
}

// Delete registers a handler for DELETE requests under the group's prefix.
func (g *Group) Delete(pattern string, handler Handler, mws ...Middleware) {
	g.must(http.MethodDelete, pattern, handler, mws)
}

// Options registers a handler for OPTIONS requests under the group's prefix.
func (g *Group) Options(pattern string, handler Handler, mws ...Middleware) {
	g.must(http.MethodOptions, pattern, handler, mws)
}

// Head registers a handler for HEAD requests under the group's prefix.
func (g *Group) Head(pattern string, handler Handler, mws ...Middleware) {
	g.must(http.MethodHead, pattern, handler, mws)
}

// Any registers a handler for the whole method set under the group's prefix.
func (g *Group) Any(pattern string, handler Handler, mws ...Middleware) {
	g.must("ANY", pattern, handler, mws)
}

func (g *Group) must(method, pattern string, handler Handler, mws []Middleware) {
	if err := g.Handle(method, pattern, handler, mws...); err != nil {
		panic(err)
	}
}

func (g *Group) join(pattern string) string {
	if pattern == "" || pattern == "/" {
		if g.prefix == "" {
			return "/"
		}
		return g.prefix
	}
	return g.prefix + pattern
}
