package catalog

import "strings"

// matchGlob reports whether s matches glob under the pack's restricted
// wildcard semantics: '*' matches any substring (including the empty
// one). A glob is decomposed into literal segments at '*' boundaries; a
// non-empty leading segment forces a prefix match, a non-empty trailing
// segment forces a suffix match, and any segments in between must occur
// in order without overlapping the consumed prefix/suffix. An empty
// glob matches only the empty string. This is deliberately not regex —
// see the design notes on why a linear segment scan is the right tool
// here.
func matchGlob(glob, s string) bool {
	if glob == "" {
		return s == ""
	}
	segments := strings.Split(glob, "*")
	if len(segments) == 1 {
		return glob == s
	}

	pos := 0
	first := segments[0]
	if first != "" {
		if !strings.HasPrefix(s, first) {
			return false
		}
		pos = len(first)
	}

	last := segments[len(segments)-1]
	for i := 1; i < len(segments)-1; i++ {
		seg := segments[i]
		if seg == "" {
			continue
		}
		idx := strings.Index(s[pos:], seg)
		if idx < 0 {
			return false
		}
		pos += idx + len(seg)
	}

	if last != "" {
		if len(s)-len(last) < pos {
			return false
		}
		if !strings.HasSuffix(s[pos:], last) {
			return false
		}
	}
	return true
}

// globSpecificity scores one side of a compatibility rule for
// most-specific-wins resolution: 2 for a literal (no wildcard) glob, 1
// for a glob containing '*' alongside literal text, 0 for a bare '*'.
func globSpecificity(glob string) int {
	if !strings.Contains(glob, "*") {
		return 2
	}
	if glob == "*" {
		return 0
	}
	return 1
}
