package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Context carries per-request state through the middleware chain: the
// inbound request, the match result, middleware-attached locals, the
// dispatch cursor, and the response under construction. A Context is owned
// exclusively by one in-flight request and must never be shared or reused
// across requests.
//
// Context implements context.Context by delegating to the request's context,
// with locals consulted first by Value.
type Context struct {
	w      *responseWriter
	r      *http.Request
	match  MatchResult
	locals map[any]any
	cursor int

	status  int
	body    []byte
	bodySet bool
}

func newContext(w *responseWriter, r *http.Request, match MatchResult) *Context {
	return &Context{
		w:      w,
		r:      r,
		match:  match,
		cursor: -1,
	}
}

// Deadline delegates to the request's context.
func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

// Done delegates to the request's context.
func (c *Context) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err delegates to the request's context.
func (c *Context) Err() error {
	return c.r.Context().Err()
}

// Value returns the local stored under key, falling back to the request's
// context for keys no middleware has set.
func (c *Context) Value(key any) any {
	if c.locals != nil {
		if v, ok := c.locals[key]; ok {
			return v
		}
	}
	return c.r.Context().Value(key)
}

// Request returns the inbound *http.Request.
func (c *Context) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the underlying http.ResponseWriter. Writing to it
// directly bypasses the buffered response builder; mixing the two styles in
// one request is the caller's responsibility.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Match returns the routing outcome for this request.
func (c *Context) Match() *MatchResult {
	return &c.match
}

// Param returns the captured value of a named parameter or wildcard.
func (c *Context) Param(name string) string {
	return c.match.Param(name)
}

// ParamKeys returns the capture names of the matched pattern in declaration order.
func (c *Context) ParamKeys() []string {
	return c.match.ParamKeys()
}

// Wildcard returns the tail captured by a wildcard segment, or "".
func (c *Context) Wildcard() string {
	return c.match.Wildcard()
}

// RoutePattern returns the raw template of the matched route, or "".
func (c *Context) RoutePattern() string {
	if c.match.route == nil {
		return ""
	}
	return c.match.route.Pattern()
}

// Get returns a middleware-attached local by key, or nil.
func (c *Context) Get(key any) any {
	if c.locals == nil {
		return nil
	}
	return c.locals[key]
}

// Set stores a local on the context. Locals are visible to all downstream
// middleware in the same dispatch, and to upstream middleware after their
// continuation returns.
func (c *Context) Set(key, value any) {
	if c.locals == nil {
		c.locals = make(map[any]any)
	}
	c.locals[key] = value
}

// SetValue is an alias for Set that returns the context for chaining.
func (c *Context) SetValue(key, value any) *Context {
	c.Set(key, value)
	return c
}

// Status sets the response status code without producing a body. The last
// call before the body is set wins.
func (c *Context) Status(code int) *Context {
	c.status = code
	return c
}

// SetHeader sets a response header.
func (c *Context) SetHeader(key, value string) *Context {
	c.w.Header().Set(key, value)
	return c
}

// ResponseStatus returns the status code of the response so far: the wire
// status when headers were already sent, otherwise the buffered one.
// Returns 0 when nothing has been decided yet.
func (c *Context) ResponseStatus() int {
	if c.w.Written() {
		return c.w.Status()
	}
	if c.status == 0 && c.bodySet {
		return http.StatusOK
	}
	return c.status
}

// BodySet reports whether a body-producing call already ran.
func (c *Context) BodySet() bool {
	return c.bodySet
}

// String sets a text/plain response body. A second body-producing call on
// the same context fails with ErrResponseSent.
func (c *Context) String(code int, s string) error {
	return c.Blob(code, "text/plain; charset=utf-8", []byte(s))
}

// JSON marshals v as the application/json response body.
func (c *Context) JSON(code int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("relay: encode json response: %w", err)
	}
	return c.Blob(code, "application/json; charset=utf-8", b)
}

// Blob sets a raw response body with the given content type.
func (c *Context) Blob(code int, contentType string, b []byte) error {
	if c.bodySet {
		return ErrResponseSent
	}
	c.bodySet = true
	c.status = code
	if contentType != "" {
		c.w.Header().Set("Content-Type", contentType)
	}
	c.body = b
	return nil
}

// NoContent completes the response with a status code and an empty body.
func (c *Context) NoContent(code int) error {
	return c.Blob(code, "", nil)
}

// Redirect completes the response with a Location header and redirect status.
func (c *Context) Redirect(code int, location string) error {
	if c.bodySet {
		return ErrResponseSent
	}
	c.w.Header().Set("Location", location)
	return c.NoContent(code)
}

// discardBody drops the buffered response so the error boundary can build
// its own. The stale Content-Type goes with it; other headers are kept.
func (c *Context) discardBody() {
	c.body = nil
	c.bodySet = false
	c.status = 0
	c.w.Header().Del("Content-Type")
}

// flush writes the buffered response to the wire. It is a no-op when a
// handler already wrote directly to the ResponseWriter.
func (c *Context) flush() error {
	if c.w.Written() {
		return nil
	}
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	c.w.WriteHeader(status)
	if len(c.body) > 0 {
		if _, err := c.w.Write(c.body); err != nil {
			return err
		}
	}
	return nil
}
