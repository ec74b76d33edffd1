package filter

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// pattern is one compiled rule. Anchored patterns match the whole relative
// path; floating patterns match any trailing run of path components, so
// "*.pak" hits both "base.pak" and "data/base.pak".
type pattern struct {
	text     string
	globs    []glob.Glob
	anchored bool
	dirOnly  bool
}

// compilePattern parses an rsync-style pattern. A trailing "/" restricts it
// to directories; a leading "/" or any inner "/" anchors it to the root.
// "*" and "?" stop at "/", "**" does not, and "{a,b}" lists alternatives.
func compilePattern(text string) (*pattern, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty filter pattern")
	}
	p := &pattern{text: text}

	expr := text
	if trimmed, ok := strings.CutSuffix(expr, "/"); ok {
		p.dirOnly = true
		expr = trimmed
	}
	switch {
	case strings.HasPrefix(expr, "**/"):
		expr = strings.TrimPrefix(expr, "**/")
	case strings.HasPrefix(expr, "/"):
		p.anchored = true
		expr = expr[1:]
	case strings.Contains(expr, "/"):
		p.anchored = true
	}
	exprs := []string{expr}
	// "a/**/b" also matches "a/b".
	if strings.Contains(expr, "/**/") {
		exprs = append(exprs, strings.ReplaceAll(expr, "/**/", "/"))
	}
	for _, e := range exprs {
		g, err := glob.Compile(e, '/')
		if err != nil {
			return nil, fmt.Errorf("filter pattern %q: %w", text, err)
		}
		p.globs = append(p.globs, g)
	}
	return p, nil
}

func (p *pattern) matchGlob(rel string) bool {
	for _, g := range p.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func (p *pattern) String() string { return p.text }

// match tests a single slash-separated relative path.
func (p *pattern) match(rel string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	if p.anchored {
		return p.matchGlob(rel)
	}
	for {
		if p.matchGlob(rel) {
			return true
		}
		i := strings.IndexByte(rel, '/')
		if i < 0 {
			return false
		}
		rel = rel[i+1:]
	}
}

// matchFile reports whether the file at rel, or any directory above it,
// matches. Excluding "movies/" drops "movies/intro/a.bik".
func (p *pattern) matchFile(rel string) bool {
	if p.match(rel, false) {
		return true
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if p.match(dir, true) {
			return true
		}
	}
	return false
}
