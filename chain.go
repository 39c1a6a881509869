package relay

// Handler is the terminal request handler. It reports failures through the
// returned error; successful responses are built on the Context.
type Handler func(c *Context) error

// Next resumes the remainder of the middleware chain. A middleware calls it
// at most once; not calling it short-circuits every downstream link
// including the terminal handler.
type Next func() error

// Middleware receives the request context and a continuation. Code before
// the next() call runs on the way in, code after it runs on the way out.
// Intentional early return is expressed by writing a response and returning
// nil without calling next(); the error return is reserved for failures.
type Middleware func(c *Context, next Next) error

// Chain is an ordered middleware sequence plus a terminal handler. It is
// built once at registration time and shared read-only across concurrent
// requests: the dispatch cursor lives on the per-request Context, so
// concurrent runs of the same chain never share mutable state.
type Chain struct {
	links   []Middleware
	handler Handler
}

// composeChain concatenates middleware stacks in precedence order
// (global, then scope-matched, then route-specific) around the terminal
// handler. The chain is stored as a flat list rather than nested closures,
// so execution is an explicit index walk.
func composeChain(handler Handler, stacks ...[]Middleware) Chain {
	n := 0
	for _, s := range stacks {
		n += len(s)
	}
	links := make([]Middleware, 0, n)
	for _, s := range stacks {
		links = append(links, s...)
	}
	return Chain{links: links, handler: handler}
}

// Len returns the number of middleware links, excluding the terminal handler.
func (ch Chain) Len() int {
	return len(ch.links)
}

// run dispatches the chain for one request. The context must be fresh; a
// context is never reused across dispatches.
func (ch Chain) run(c *Context) error {
	c.cursor = -1
	return ch.invoke(c, 0)
}

// invoke executes the link at index i. The context cursor only ever moves
// forward; a continuation call that would not advance it means a middleware
// invoked next() more than once.
func (ch Chain) invoke(c *Context, i int) error {
	if i <= c.cursor {
		return ErrDoubleDispatch
	}
	c.cursor = i

	// Cancellation is checked at each link boundary. Downstream links do
	// not run for a cancelled request; upstream links still unwind and may
	// release resources.
	if err := c.Err(); err != nil {
		return err
	}

	if i < len(ch.links) {
		return ch.links[i](c, func() error {
			return ch.invoke(c, i+1)
		})
	}
	if ch.handler != nil {
		return ch.handler(c)
	}
	return nil
}
