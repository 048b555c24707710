package glob

import (
	gobwas "github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"
)

// compiled is a cache slot. A nil glob records a pattern that failed to
// compile so it is not recompiled on every query.
type compiled struct {
	g gobwas.Glob
}

// Gobwas matches with github.com/gobwas/glob using '/' as the separator.
// Compiled patterns are kept in an LRU cache; it is safe for concurrent use.
type Gobwas struct {
	cache *lru.Cache[string, compiled]
}

// NewGobwas creates a gobwas matcher caching up to cacheSize compiled patterns.
func NewGobwas(cacheSize int) (*Gobwas, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, compiled](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Gobwas{cache: cache}, nil
}

// Match reports whether path matches pattern.
func (m *Gobwas) Match(pattern, path string) bool {
	c, ok := m.cache.Get(pattern)
	if !ok {
		g, err := gobwas.Compile(pattern, '/')
		if err != nil {
			g = nil
		}
		c = compiled{g: g}
		m.cache.Add(pattern, c)
	}
	if c.g == nil {
		return false
	}
	return c.g.Match(path)
}

// Cached returns the number of patterns currently held in the cache.
func (m *Gobwas) Cached() int {
	return m.cache.Len()
}

// Ensure Gobwas implements Matcher.
var _ Matcher = (*Gobwas)(nil)
