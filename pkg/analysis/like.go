package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// LikePattern is a compiled, case-sensitive SQL LIKE pattern. '%' matches
// any run of characters, '_' exactly one, and a backslash escapes the next
// character. A pattern without wildcards is an exact match.
type LikePattern struct {
	pattern string
	re      *regexp.Regexp
}

// CompileLike compiles pattern.
func CompileLike(pattern string) (*LikePattern, error) {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		case '\\':
			if i+1 == len(runes) {
				return nil, fmt.Errorf("like pattern %q ends with an escape character", pattern)
			}
			i++
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("like pattern %q: %w", pattern, err)
	}
	return &LikePattern{pattern: pattern, re: re}, nil
}

// Match reports whether s matches the whole pattern.
func (p *LikePattern) Match(s string) bool {
	return p.re.MatchString(s)
}

// String returns the source pattern.
func (p *LikePattern) String() string {
	return p.pattern
}
