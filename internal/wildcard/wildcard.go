// Package wildcard matches strings against patterns where '*' stands for
// any run of characters, including the empty one.
package wildcard

// Match reports whether s matches pattern. Matching is byte-wise and
// case-sensitive; '*' is the only metacharacter.
func Match(pattern, s string) bool {
	starP, starS := -1, 0
	p, i := 0, 0
	for i < len(s) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			starP = p
			starS = i
			p++
		case p < len(pattern) && pattern[p] == s[i]:
			p++
			i++
		case starP != -1:
			p = starP + 1
			starS++
			i = starS
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// MatchAny reports whether any pattern matches s.
func MatchAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if Match(p, s) {
			return true
		}
	}
	return false
}
