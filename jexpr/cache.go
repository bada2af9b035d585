package jexpr

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// parseCache is a bounded LRU of parsed trees keyed by source. Trees are
// immutable, so a cached tree can be handed to any number of evaluations.
type parseCache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

func newParseCache(size int) *parseCache {
	if size <= 0 {
		return &parseCache{}
	}
	return &parseCache{lru: lru.New(size)}
}

func (c *parseCache) get(source string) (Node, bool) {
	if c.lru == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(source)
	if !ok {
		return nil, false
	}
	return v.(Node), true
}

func (c *parseCache) add(source string, node Node) {
	if c.lru == nil {
		return
	}
	c.mu.Lock()
	c.lru.Add(source, node)
	c.mu.Unlock()
}

func (c *parseCache) len() int {
	if c.lru == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
