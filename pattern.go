package relay

import (
	"fmt"
	"strings"
)

type segmentKind uint8

const (
	segStatic   segmentKind = iota // /home
	segParam                       // /:id
	segWildcard                    // /*path
)

// segment is one matchable piece of a compiled pattern. For static segments
// value holds the literal text, for params and wildcards the capture name.
type segment struct {
	kind  segmentKind
	value string
}

// patElem is a parsed template element: either a single segment or an
// optional group wrapping nested elements.
type patElem struct {
	seg   segment
	group []patElem // non-nil marks an optional group
}

// Specificity ranks patterns for tie-breaking: static-heavy patterns outrank
// param-heavy ones, which outrank wildcard patterns. The ranking is encoded
// structurally in the route trie (literal child before param child before
// wildcard child); this value is exposed for introspection.
type Specificity struct {
	Static   int
	Params   int
	Wildcard bool
}

// Pattern is the immutable compiled representation of a path template.
// Patterns are created once at route registration and never mutated.
type Pattern struct {
	raw        string
	elems      []patElem
	expansions [][]segment // optional groups expanded, present branches first
	paramKeys  []string    // declaration order, all groups present
	spec       Specificity
}

// Compile parses a path template into a Pattern. It is a pure function of
// the input: compiling the same template twice yields structurally equal
// patterns.
//
// Template syntax:
//
//	/users          static segment
//	/users/:id      named parameter, captures one path segment
//	/files/*path    wildcard, captures the remaining path including slashes;
//	                must be the final segment ("*" alone is also accepted)
//	/users(/:id)    optional suffix group; matching may skip the whole group
func Compile(template string) (*Pattern, error) {
	if len(template) == 0 || template[0] != '/' {
		return nil, fmt.Errorf("%w: %q", ErrMissingSlash, template)
	}

	elems, err := parseElems(template)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, template)
	}

	expansions := expandElems(elems)

	// Every expansion must keep its wildcard, if any, in final position.
	// This also rejects patterns with more than one wildcard.
	for _, segs := range expansions {
		for i, s := range segs {
			if s.kind == segWildcard && i != len(segs)-1 {
				return nil, fmt.Errorf("%w: %q", ErrWildcardPosition, template)
			}
		}
	}

	// The first expansion has every group present and therefore carries the
	// full set of capture names.
	full := expansions[0]
	keys := paramKeysOf(full)
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateParam, k, template)
		}
		seen[k] = struct{}{}
	}

	spec := Specificity{}
	for _, s := range full {
		switch s.kind {
		case segStatic:
			spec.Static++
		case segParam:
			spec.Params++
		case segWildcard:
			spec.Wildcard = true
		}
	}

	return &Pattern{
		raw:        template,
		elems:      elems,
		expansions: expansions,
		paramKeys:  keys,
		spec:       spec,
	}, nil
}

// MustCompile is like Compile but panics on a malformed template.
func MustCompile(template string) *Pattern {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the raw template the pattern was compiled from.
func (p *Pattern) String() string {
	return p.raw
}

// Params returns the capture names in declaration order, counting every
// optional group as present.
func (p *Pattern) Params() []string {
	keys := make([]string, len(p.paramKeys))
	copy(keys, p.paramKeys)
	return keys
}

// Specificity returns the pattern's tie-breaking score.
func (p *Pattern) Specificity() Specificity {
	return p.spec
}

// Equal reports whether two patterns are structurally equal, that is, they
// compile to the same set of matchable segment sequences.
func (p *Pattern) Equal(o *Pattern) bool {
	if p == nil || o == nil {
		return p == o
	}
	if len(p.expansions) != len(o.expansions) {
		return false
	}
	for i := range p.expansions {
		a, b := p.expansions[i], o.expansions[i]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}

// isStatic reports whether the pattern has a single, fully static expansion.
func (p *Pattern) isStatic() bool {
	if len(p.expansions) != 1 {
		return false
	}
	for _, s := range p.expansions[0] {
		if s.kind != segStatic {
			return false
		}
	}
	return true
}

// matchesPath reports whether any expansion of the pattern matches the given
// normalized path segments. Used for scoped middleware selection; captures
// are not recorded.
func (p *Pattern) matchesPath(segs []string) bool {
	for _, expansion := range p.expansions {
		if matchSegs(expansion, segs) {
			return true
		}
	}
	return false
}

func matchSegs(pat []segment, segs []string) bool {
	for i, ps := range pat {
		if ps.kind == segWildcard {
			return true
		}
		if i >= len(segs) {
			return false
		}
		if ps.kind == segStatic && segs[i] != ps.value {
			return false
		}
	}
	return len(pat) == len(segs)
}

// parseElems parses a template into elements, recursing into optional groups.
func parseElems(s string) ([]patElem, error) {
	var elems []patElem
	i := 0
	for i < len(s) {
		switch s[i] {
		case '/':
			j := i + 1
			for j < len(s) && s[j] != '/' && s[j] != '(' && s[j] != ')' {
				j++
			}
			piece := s[i+1 : j]
			if piece != "" {
				seg, err := parseSegment(piece)
				if err != nil {
					return nil, err
				}
				elems = append(elems, patElem{seg: seg})
			}
			i = j
		case '(':
			depth := 1
			j := i + 1
			for j < len(s) && depth > 0 {
				switch s[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
				j++
			}
			if depth != 0 {
				return nil, ErrUnbalancedGroup
			}
			inner := s[i+1 : j-1]
			if !strings.HasPrefix(inner, "/") {
				return nil, fmt.Errorf("%w: optional group must begin with '/'", ErrPatternSyntax)
			}
			sub, err := parseElems(inner)
			if err != nil {
				return nil, err
			}
			if len(sub) == 0 {
				return nil, fmt.Errorf("%w: empty optional group", ErrPatternSyntax)
			}
			elems = append(elems, patElem{group: sub})
			i = j
		case ')':
			return nil, ErrUnbalancedGroup
		default:
			return nil, fmt.Errorf("%w: unexpected %q", ErrPatternSyntax, string(s[i]))
		}
	}
	return elems, nil
}

func parseSegment(piece string) (segment, error) {
	switch piece[0] {
	case ':':
		name := piece[1:]
		if name == "" {
			return segment{}, ErrEmptyParamName
		}
		return segment{kind: segParam, value: name}, nil
	case '*':
		name := piece[1:]
		if name == "" {
			name = "*"
		}
		return segment{kind: segWildcard, value: name}, nil
	default:
		return segment{kind: segStatic, value: piece}, nil
	}
}

// expandElems produces every concrete segment sequence a template can match,
// one per combination of optional groups. Branches with a group present come
// before the sibling branch with it absent, so the present branch is the one
// preferred when both would occupy the same trie slot.
func expandElems(elems []patElem) [][]segment {
	variants := [][]segment{{}}
	for _, e := range elems {
		if e.group == nil {
			for i := range variants {
				variants[i] = append(variants[i], e.seg)
			}
			continue
		}
		subs := expandElems(e.group)
		out := make([][]segment, 0, len(variants)*(len(subs)+1))
		for _, v := range variants {
			for _, sv := range subs {
				nv := make([]segment, len(v), len(v)+len(sv))
				copy(nv, v)
				out = append(out, append(nv, sv...))
			}
			out = append(out, v)
		}
		variants = out
	}
	return variants
}

// paramKeysOf collects capture names of one expansion in declaration order.
func paramKeysOf(segs []segment) []string {
	keys := []string{}
	for _, s := range segs {
		if s.kind == segParam || s.kind == segWildcard {
			keys = append(keys, s.value)
		}
	}
	return keys
}

// canonicalPath renders a fully static expansion as a lookup key for the
// exact-match tier.
func canonicalPath(segs []segment) string {
	if len(segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')
		b.WriteString(s.value)
	}
	return b.String()
}
