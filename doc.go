// Package relay provides an HTTP routing and middleware dispatch kernel for
// building JSON APIs and web services in Go. It compiles path templates into
// a two-tier route table (an exact-match index for static routes and a
// segment trie for dynamic ones), composes deterministic middleware chains at
// registration time, and dispatches each request through an explicit
// continuation walk with double-dispatch and double-send protection.
//
// A Router is an http.Handler. Routes are registered with path templates
// supporting named parameters (:id), trailing wildcards (*path) and optional
// suffix groups ((/:id)):
//
//	r := relay.New()
//	r.Use(middleware.Logging())
//	r.Get("/posts/:slug", func(c *relay.Context) error {
//		return c.String(http.StatusOK, c.Param("slug"))
//	})
//	http.ListenAndServe(":8080", r)
//
// Middleware receive the request context and a continuation. Code before the
// next() call runs on the way in, code after it runs on the way out, and not
// calling next() short-circuits the rest of the chain:
//
//	func timing(c *relay.Context, next relay.Next) error {
//		start := time.Now()
//		err := next()
//		c.SetHeader("X-Elapsed", time.Since(start).String())
//		return err
//	}
//
// Each Router owns its route table; there is no global registry, so multiple
// independent routers can coexist in one process.
package relay
