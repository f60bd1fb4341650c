package lintcfg

import (
	"errors"
	"regexp"
	"strings"
)

// Pattern is a compiled path glob. `**` matches across directories, `*`
// and `?` stay within one path segment, and a trailing `/` matches the
// directory and everything below it.
type Pattern struct {
	Glob string
	re   *regexp.Regexp
}

// Compile turns a glob into a Pattern.
func Compile(glob string) (*Pattern, error) {
	g := strings.TrimSpace(glob)
	if g == "" {
		return nil, errors.New("empty pattern")
	}
	g = strings.TrimPrefix(normalize(g), "/")

	dirOnly := strings.HasSuffix(g, "/")
	g = strings.TrimSuffix(g, "/")

	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(g); i++ {
		ch := g[i]
		switch ch {
		case '*':
			if i+1 < len(g) && g[i+1] == '*' {
				i++
				if i+1 < len(g) && g[i+1] == '/' {
					i++
					b.WriteString("(?:.*/)?")
				} else {
					b.WriteString(".*")
				}
				continue
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	if dirOnly {
		b.WriteString("(?:/.*)?")
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	return &Pattern{Glob: glob, re: re}, nil
}

// Match reports whether the slash-separated relative path matches.
func (p *Pattern) Match(path string) bool {
	return p.re.MatchString(normalize(path))
}
