package relay

// MatchResult is the outcome of resolving a (method, path) pair against the
// route table. It is created fresh per request, owned by that request's
// Context, and discarded when the request completes.
//
// Three outcomes are representable: a route matched, the path matched under
// a different method (405), or nothing matched (404). Absence of a match is
// a valid result, never an error.
type MatchResult struct {
	route   *Route
	keys    []string // capture names, declaration order in the pattern
	values  []string // captured values, parallel to keys
	tail    string   // wildcard-captured remainder, if any
	hasTail bool
	allowed []string // methods with handlers when the path matched elsewhere
}

// Matched reports whether a route was resolved.
func (m *MatchResult) Matched() bool {
	return m.route != nil
}

// MethodNotAllowed reports whether the path matched a registered pattern
// under a different method.
func (m *MatchResult) MethodNotAllowed() bool {
	return m.route == nil && len(m.allowed) > 0
}

// Route returns the matched route, or nil.
func (m *MatchResult) Route() *Route {
	return m.route
}

// Param returns the captured value for the named parameter or wildcard.
// It returns "" when the name was not declared by the matched pattern.
func (m *MatchResult) Param(name string) string {
	for i, k := range m.keys {
		if k == name && i < len(m.values) {
			return m.values[i]
		}
	}
	return ""
}

// ParamKeys returns the capture names in declaration order.
func (m *MatchResult) ParamKeys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// ParamValues returns the captured values, parallel to ParamKeys.
func (m *MatchResult) ParamValues() []string {
	values := make([]string, len(m.values))
	copy(values, m.values)
	return values
}

// Wildcard returns the literal tail captured by a wildcard segment,
// including slashes, or "" when the matched pattern has no wildcard.
func (m *MatchResult) Wildcard() string {
	return m.tail
}

// AllowedMethods returns the methods registered for the path when the
// result is a method-not-allowed outcome, suitable for an Allow header.
func (m *MatchResult) AllowedMethods() []string {
	allowed := make([]string, len(m.allowed))
	copy(allowed, m.allowed)
	return allowed
}
