package inflate

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// TreeCache remembers trees by their exact code-length array. Encoders tend to repeat the same
// dynamic header across blocks and files, so a hit skips construction entirely. Safe for
// concurrent use; trees are immutable so a cached tree may be shared by any number of streams.
type TreeCache struct {
	cache *lru.Cache[string, *Tree]
}

func NewTreeCache(size int) (*TreeCache, error) {
	cache, err := lru.New[string, *Tree](size)
	if err != nil {
		return nil, err
	}
	return &TreeCache{cache: cache}, nil
}

// Get returns the tree for lengths, building and caching it on a miss.
// A nil cache always builds.
func (c *TreeCache) Get(lengths []uint8) (*Tree, error) {
	if c == nil {
		return NewTreeFromLengths(lengths)
	}
	key := string(lengths)
	if tree, ok := c.cache.Get(key); ok {
		return tree, nil
	}
	tree, err := NewTreeFromLengths(lengths)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, tree)
	return tree, nil
}

func (c *TreeCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
