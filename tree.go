package relay

import (
	"net/http"
	"strings"
)

type methodTyp uint

const (
	mGET methodTyp = 1 << iota
	mPOST
	mPUT
	mPATCH
	mDELETE
	mOPTIONS
	mHEAD
)

// mANY covers the full method set for routes registered with Any.
var mANY = mGET | mPOST | mPUT | mPATCH | mDELETE | mOPTIONS | mHEAD

var methodMap = map[string]methodTyp{
	http.MethodGet:     mGET,
	http.MethodPost:    mPOST,
	http.MethodPut:     mPUT,
	http.MethodPatch:   mPATCH,
	http.MethodDelete:  mDELETE,
	http.MethodOptions: mOPTIONS,
	http.MethodHead:    mHEAD,
}

// methodOrder fixes the listing order for Allow headers and introspection.
var methodOrder = []methodTyp{mGET, mHEAD, mPOST, mPUT, mPATCH, mDELETE, mOPTIONS}

var reverseMethodMap = map[methodTyp]string{
	mGET:     http.MethodGet,
	mPOST:    http.MethodPost,
	mPUT:     http.MethodPut,
	mPATCH:   http.MethodPatch,
	mDELETE:  http.MethodDelete,
	mOPTIONS: http.MethodOptions,
	mHEAD:    http.MethodHead,
}

// endpoint ties a route to one expansion of its pattern. Different
// expansions of the same route can declare different capture sets, so the
// keys live here rather than on the route.
type endpoint struct {
	route        *Route
	paramKeys    []string
	trailingWild bool
}

// endpoints maps concrete method bits to handlers for one trie position.
type endpoints map[methodTyp]*endpoint

// set installs ep for every method bit in mask. Last registration wins
// unless strict is set, in which case an occupied slot is a conflict.
func (eps endpoints) set(mask methodTyp, ep *endpoint, strict bool) error {
	if strict {
		for _, m := range methodOrder {
			if mask&m != 0 && eps[m] != nil {
				return ErrRouteConflict
			}
		}
	}
	for _, m := range methodOrder {
		if mask&m != 0 {
			eps[m] = ep
		}
	}
	return nil
}

// allowedMethods lists methods with handlers in the fixed listing order.
func (eps endpoints) allowedMethods() []string {
	allowed := make([]string, 0, len(eps))
	for _, m := range methodOrder {
		if eps[m] != nil {
			allowed = append(allowed, reverseMethodMap[m])
		}
	}
	return allowed
}

// node is one level of the segment trie. Each node holds literal children
// keyed by segment text, at most one param child, and at most one wildcard
// child; the bounded fan-out keeps backtracking linear in path length.
type node struct {
	literal map[string]*node
	param   *node
	wild    *node
	eps     endpoints
}

func (n *node) child(seg segment) *node {
	switch seg.kind {
	case segParam:
		if n.param == nil {
			n.param = &node{}
		}
		return n.param
	case segWildcard:
		if n.wild == nil {
			n.wild = &node{}
		}
		return n.wild
	default:
		if n.literal == nil {
			n.literal = make(map[string]*node)
		}
		c := n.literal[seg.value]
		if c == nil {
			c = &node{}
			n.literal[seg.value] = c
		}
		return c
	}
}

// tree is the two-tier route table: an exact-match index for fully static
// patterns and a segment trie for everything else. Registration mutates the
// tree and must not run concurrently with matching; matching is read-only.
type tree struct {
	static map[string]endpoints
	root   *node
	strict bool
}

func newTree(strict bool) *tree {
	return &tree{
		static: make(map[string]endpoints),
		root:   &node{},
		strict: strict,
	}
}

// register inserts every expansion of the route's pattern. Fully static
// expansions go to the exact-match tier, the rest walk and extend the trie.
func (t *tree) register(mask methodTyp, rt *Route) error {
	for _, segs := range rt.pattern.expansions {
		ep := &endpoint{
			route:        rt,
			paramKeys:    paramKeysOf(segs),
			trailingWild: len(segs) > 0 && segs[len(segs)-1].kind == segWildcard,
		}

		if staticSegs(segs) {
			path := canonicalPath(segs)
			eps := t.static[path]
			if eps == nil {
				eps = make(endpoints)
				t.static[path] = eps
			}
			if err := eps.set(mask, ep, t.strict); err != nil {
				return err
			}
			continue
		}

		n := t.root
		for _, s := range segs {
			n = n.child(s)
			if s.kind == segWildcard {
				break
			}
		}
		if n.eps == nil {
			n.eps = make(endpoints)
		}
		if err := n.eps.set(mask, ep, t.strict); err != nil {
			return err
		}
	}
	return nil
}

func staticSegs(segs []segment) bool {
	for _, s := range segs {
		if s.kind != segStatic {
			return false
		}
	}
	return true
}

// match resolves a method and raw request path to a MatchResult. It never
// fails: malformed encodings and missing routes are representable outcomes.
func (t *tree) match(method methodTyp, path string) MatchResult {
	segs, canonical, ok := normalizePath(path)
	if !ok {
		return MatchResult{}
	}

	if canonical != "" {
		if eps, found := t.static[canonical]; found {
			if ep := eps[method]; ep != nil {
				return MatchResult{route: ep.route, keys: ep.paramKeys}
			}
			return MatchResult{allowed: eps.allowedMethods()}
		}
	}

	ep, values, tail, hasTail, miss := t.root.find(method, segs, nil)
	if ep != nil {
		return MatchResult{
			route:   ep.route,
			keys:    ep.paramKeys,
			values:  values,
			tail:    tail,
			hasTail: hasTail,
		}
	}
	if miss != nil {
		return MatchResult{allowed: miss.allowedMethods()}
	}
	return MatchResult{}
}

// find walks the trie preferring literal over param over wildcard children,
// backtracking to the next-preferred branch on a dead end. When the full
// path lands on a node that has handlers only for other methods, the walk
// stops there and reports the endpoints for a 405 outcome.
func (n *node) find(method methodTyp, segs []string, values []string) (*endpoint, []string, string, bool, endpoints) {
	if len(segs) == 0 {
		if n.eps != nil {
			if ep := n.eps[method]; ep != nil {
				return ep, values, "", false, nil
			}
			return nil, nil, "", false, n.eps
		}
		// A trailing wildcard matches an empty remainder, but only when the
		// current node has no endpoints of its own.
		if n.wild != nil && n.wild.eps != nil {
			if ep := n.wild.eps[method]; ep != nil {
				return ep, append(values, ""), "", true, nil
			}
			return nil, nil, "", false, n.wild.eps
		}
		return nil, nil, "", false, nil
	}

	seg := segs[0]

	if c := n.literal[seg]; c != nil {
		ep, vals, tail, hasTail, miss := c.find(method, segs[1:], values)
		if ep != nil || miss != nil {
			return ep, vals, tail, hasTail, miss
		}
	}

	if n.param != nil {
		ep, vals, tail, hasTail, miss := n.param.find(method, segs[1:], append(values, seg))
		if ep != nil || miss != nil {
			return ep, vals, tail, hasTail, miss
		}
	}

	if n.wild != nil && n.wild.eps != nil {
		tail := strings.Join(segs, "/")
		if ep := n.wild.eps[method]; ep != nil {
			return ep, append(values, tail), tail, true, nil
		}
		return nil, nil, "", false, n.wild.eps
	}

	return nil, nil, "", false, nil
}

// normalizePath splits a raw request path into decoded segments. Duplicate
// slashes collapse, and each segment is percent-decoded after splitting so
// an encoded slash can never introduce a segment boundary. An undecodable
// segment makes the whole path unmatchable.
func normalizePath(path string) ([]string, string, bool) {
	if path == "" {
		path = "/"
	}
	parts := strings.Split(path, "/")
	segs := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		dec, ok := unescapeSegment(part)
		if !ok {
			return nil, "", false
		}
		segs = append(segs, dec)
	}
	return segs, "/" + strings.Join(segs, "/"), true
}

// unescapeSegment percent-decodes one path segment. Encoded slashes (%2F)
// stay encoded: slashes are boundaries, never data, so a decoded segment can
// never contain one.
func unescapeSegment(s string) (string, bool) {
	if !strings.ContainsRune(s, '%') {
		return s, true
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", false
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", false
		}
		if v := hi<<4 | lo; v == '/' {
			b.WriteString(s[i : i+3])
		} else {
			b.WriteByte(v)
		}
		i += 2
	}
	return b.String(), true
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// walk visits every endpoint set in the table, static tier first.
func (t *tree) walk(fn func(eps endpoints)) {
	for _, eps := range t.static {
		fn(eps)
	}
	t.root.walk(fn)
}

func (n *node) walk(fn func(eps endpoints)) {
	if n.eps != nil {
		fn(n.eps)
	}
	for _, c := range n.literal {
		c.walk(fn)
	}
	if n.param != nil {
		n.param.walk(fn)
	}
	if n.wild != nil {
		n.wild.walk(fn)
	}
}
