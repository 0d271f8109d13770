// Package fileglob compiles brace-expansion wildcard glob patterns into
// anchored path predicates. Paths are archive-relative and use forward
// slashes. `**` matches across path separators, `*` within a single segment,
// `?` exactly one character.
package fileglob

import (
	"regexp"
	"strings"
)

// Match reports whether path matches the glob pattern. Brace lists are
// expanded into the cross-product of literal alternatives before wildcard
// translation; the pattern matches if any expanded alternative matches.
func Match(path, pattern string) bool {
	for _, alt := range ExpandBraces(pattern) {
		re, err := compile(alt)
		if err != nil {
			continue
		}
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// MatchAny reports whether path matches any pattern in globs. An empty or
// nil set means "no restriction" and matches everything.
func MatchAny(path string, globs []string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		if Match(path, g) {
			return true
		}
	}
	return false
}

// ExpandBraces recursively expands brace lists ({a,b,c}) into the
// cross-product of alternatives. Malformed or empty brace groups degrade to
// the literal string as a single non-expanding pattern.
func ExpandBraces(pattern string) []string {
	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		return []string{pattern}
	}

	// Find the matching close brace, honouring nesting.
	depth := 0
	closeIdx := -1
	for i := open; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				closeIdx = i
			}
		}
		if closeIdx >= 0 {
			break
		}
	}
	if closeIdx < 0 {
		// Unbalanced braces: treat as a literal.
		return []string{pattern}
	}

	body := pattern[open+1 : closeIdx]
	if body == "" {
		return []string{pattern}
	}

	prefix := pattern[:open]
	suffix := pattern[closeIdx+1:]

	var out []string
	for _, alt := range splitTopLevel(body) {
		for _, expanded := range ExpandBraces(prefix + alt + suffix) {
			out = append(out, expanded)
		}
	}
	return out
}

// splitTopLevel splits a brace body on commas that are not inside a nested
// brace group.
func splitTopLevel(body string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, body[start:])
	return parts
}

// compile translates a single (brace-free) glob into an anchored path regex.
func compile(glob string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")

	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				// `**/` may match zero path segments, so `**/*.js`
				// still matches a top-level file.
				if i+2 < len(glob) && glob[i+2] == '/' {
					sb.WriteString("(?:.*/)?")
					i += 2
				} else {
					sb.WriteString(".*")
					i++
				}
			} else {
				sb.WriteString("[^/]*")
			}
		case '?':
			sb.WriteString("[^/]")
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
