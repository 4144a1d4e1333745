// Package filters selects which input values are worth interning.
//
// A pattern is either a glob (compiled with github.com/gobwas/glob), a
// suffix when it starts with a dot, or an exclusion when prefixed with "!".
// A value is kept when it passes the length limits, matches no exclusion,
// and matches at least one inclusion (or there are no inclusions).
package filters

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

type Options struct {
	Patterns  []string
	MinLength int
	MaxLength int
	// Separators stop "*" from matching across them, so "*.example.com"
	// with '.' as a separator matches one label only.
	Separators []rune
}

type matcher struct {
	pattern string
	suffix  string
	g       glob.Glob
}

func (m matcher) match(s string) bool {
	if m.g != nil {
		return m.g.Match(s)
	}
	return strings.HasSuffix(s, m.suffix) || s == m.suffix[1:]
}

// Filter is safe for concurrent use. A nil Filter keeps everything.
type Filter struct {
	include []matcher
	exclude []matcher
	minLen  int
	maxLen  int
}

var globCache sync.Map

func compile(pattern string, separators []rune) (glob.Glob, error) {
	key := pattern + "\x00" + string(separators)
	if cached, ok := globCache.Load(key); ok {
		return cached.(glob.Glob), nil
	}
	g, err := glob.Compile(pattern, separators...)
	if err != nil {
		return nil, err
	}
	globCache.Store(key, g)
	return g, nil
}

// New compiles opts. It returns nil, nil when opts select nothing.
func New(opts Options) (*Filter, error) {
	if opts.MinLength < 0 || opts.MaxLength < 0 {
		return nil, fmt.Errorf("filters: negative length limit")
	}
	f := &Filter{minLen: opts.MinLength, maxLen: opts.MaxLength}
	for _, raw := range opts.Patterns {
		pattern := strings.TrimSpace(raw)
		negate := strings.HasPrefix(pattern, "!")
		if negate {
			pattern = strings.TrimSpace(pattern[1:])
		}
		if pattern == "" {
			continue
		}

		m := matcher{pattern: pattern}
		if strings.HasPrefix(pattern, ".") && !strings.ContainsAny(pattern, "*?[{\\") {
			m.suffix = pattern
		} else {
			g, err := compile(pattern, opts.Separators)
			if err != nil {
				return nil, fmt.Errorf("filters: compiling %q: %w", pattern, err)
			}
			m.g = g
		}

		if negate {
			f.exclude = append(f.exclude, m)
		} else {
			f.include = append(f.include, m)
		}
	}
	if len(f.include) == 0 && len(f.exclude) == 0 && f.minLen == 0 && f.maxLen == 0 {
		return nil, nil
	}
	return f, nil
}

// Match reports whether s should be kept.
func (f *Filter) Match(s string) bool {
	if f == nil {
		return true
	}
	if len(s) < f.minLen || (f.maxLen > 0 && len(s) > f.maxLen) {
		return false
	}
	for _, m := range f.exclude {
		if m.match(s) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, m := range f.include {
		if m.match(s) {
			return true
		}
	}
	return false
}

// Patterns returns the inclusion and exclusion patterns in their compiled
// order, exclusions prefixed with "!".
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	out := make([]string, 0, len(f.include)+len(f.exclude))
	for _, m := range f.include {
		out = append(out, m.pattern)
	}
	for _, m := range f.exclude {
		out = append(out, "!"+m.pattern)
	}
	return out
}

func resetGlobCache() {
	globCache = sync.Map{}
}
