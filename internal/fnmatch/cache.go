package fnmatch

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	pattern string
	flags   int
}

// cacheSize is generous: a registry typically has a handful of distinct
// watch patterns active at once, each recompiled on every watch_add and
// every pattern-search call.
const cacheSize = 256

var compiled *lru.Cache[cacheKey, cachedPattern]

type cachedPattern struct {
	matchAny string // debug aid: the source pattern; not read by this package
	match    func(string) bool
}

func init() {
	c, err := lru.New[cacheKey, cachedPattern](cacheSize)
	if err != nil {
		// cacheSize is a compile-time constant > 0; New only errors on size <= 0.
		panic(err)
	}
	compiled = c
}

// MatchCached behaves like Match but caches the compiled regexp for
// (pattern, flags) pairs, since the registry's pattern search recompiles
// the same handful of watch patterns on every call.
func MatchCached(pattern, s string, flags int) (bool, error) {
	key := cacheKey{pattern, flags}
	if cp, ok := compiled.Get(key); ok {
		return cp.match(s), nil
	}
	exp, err := Convert(pattern, flags)
	if err != nil {
		return false, fmt.Errorf("fnmatch: compile %q: %w", pattern, err)
	}
	cp := cachedPattern{
		matchAny: pattern,
		match:    exp.MatchString,
	}
	compiled.Add(key, cp)
	return cp.match(s), nil
}

// FirstMeta returns the index of the first fnmatch meta-character
// (`*`, `?`, or `[`) in pattern, or len(pattern) if it contains none. It
// powers the pattern search's range-pruning: everything before the first
// meta-character is a literal prefix that bounds an in-order tree scan.
func FirstMeta(pattern string) int {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '[':
			return i
		}
	}
	return len(pattern)
}
