package httpclient

import "github.com/hullshell/hull/internal/wildcard"

// Scope is the allow/deny URL filter applied to every outgoing request.
// Deny patterns win over allow patterns; with no allow patterns every
// request is rejected.
type Scope struct {
	allow []string
	deny  []string
}

// NewScope builds a scope from manifest patterns. Patterns cover the full
// URL; '*' matches any run of characters including the empty one.
func NewScope(allow, deny []string) Scope {
	return Scope{allow: allow, deny: deny}
}

// Allows reports whether the URL passes the filter.
func (s Scope) Allows(rawURL string) bool {
	if wildcard.MatchAny(s.deny, rawURL) {
		return false
	}
	return wildcard.MatchAny(s.allow, rawURL)
}
