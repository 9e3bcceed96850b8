package view

import "sync"

// Cache holds parsed view documents between renders. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(id string) (*Document, bool)
	Set(id string, doc *Document)
	Invalidate(id string)
}

// MapCache is a mutex-guarded in-process cache.
type MapCache struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func NewMapCache() *MapCache {
	return &MapCache{docs: make(map[string]*Document)}
}

func (c *MapCache) Get(id string) (*Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[id]
	return doc, ok
}

func (c *MapCache) Set(id string, doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[id] = doc
}

func (c *MapCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, id)
}
