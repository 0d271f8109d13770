package fileglob

import (
	"reflect"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		pattern  string
		expected bool
	}{
		{
			name:     "double star crosses separators",
			path:     "src/app.min.js",
			pattern:  "**/*.min.js",
			expected: true,
		},
		{
			name:     "double star matches zero segments",
			path:     "app.min.js",
			pattern:  "**/*.min.js",
			expected: true,
		},
		{
			name:     "single star does not cross separators",
			path:     "src/app.js",
			pattern:  "*.js",
			expected: false,
		},
		{
			name:     "single star within a segment",
			path:     "app.js",
			pattern:  "*.js",
			expected: true,
		},
		{
			name:     "question mark matches exactly one character",
			path:     "a.js",
			pattern:  "?.js",
			expected: true,
		},
		{
			name:     "question mark does not match separator",
			path:     "a/b.js",
			pattern:  "?.js",
			expected: false,
		},
		{
			name:     "literal dot is escaped",
			path:     "appxjs",
			pattern:  "app.js",
			expected: false,
		},
		{
			name:     "brace list first alternative",
			path:     "a.js",
			pattern:  "**/*.{js,ts}",
			expected: true,
		},
		{
			name:     "brace list second alternative in subdir",
			path:     "b/c.ts",
			pattern:  "**/*.{js,ts}",
			expected: true,
		},
		{
			name:     "brace list miss",
			path:     "b/c.css",
			pattern:  "**/*.{js,ts}",
			expected: false,
		},
		{
			name:     "nested braces",
			path:     "src/x.min.js",
			pattern:  "src/*.{min.{js,css},map}",
			expected: true,
		},
		{
			name:     "directory glob",
			path:     "node_modules/lodash/index.js",
			pattern:  "**/node_modules/**",
			expected: true,
		},
		{
			name:     "malformed brace treated as literal",
			path:     "a.{js",
			pattern:  "a.{js",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.path, tt.pattern); got != tt.expected {
				t.Errorf("Match(%q, %q) = %v, expected %v", tt.path, tt.pattern, got, tt.expected)
			}
		})
	}
}

func TestMatchAny(t *testing.T) {
	if !MatchAny("any/path.js", nil) {
		t.Error("empty glob set must mean no restriction")
	}
	if !MatchAny("src/a.ts", []string{"*.js", "**/*.ts"}) {
		t.Error("expected a match on the second glob")
	}
	if MatchAny("src/a.go", []string{"*.js", "**/*.ts"}) {
		t.Error("expected no match")
	}
}

func TestExpandBraces(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected []string
	}{
		{
			name:     "no braces",
			pattern:  "**/*.js",
			expected: []string{"**/*.js"},
		},
		{
			name:     "simple list",
			pattern:  "*.{js,ts,css}",
			expected: []string{"*.js", "*.ts", "*.css"},
		},
		{
			name:     "nested lists",
			pattern:  "{a,b{c,d}}",
			expected: []string{"a", "bc", "bd"},
		},
		{
			name:     "empty group degrades to literal",
			pattern:  "a{}b",
			expected: []string{"a{}b"},
		},
		{
			name:     "unbalanced brace degrades to literal",
			pattern:  "a{b,c",
			expected: []string{"a{b,c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandBraces(tt.pattern)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExpandBraces(%q) = %v, expected %v", tt.pattern, got, tt.expected)
			}
		})
	}
}
