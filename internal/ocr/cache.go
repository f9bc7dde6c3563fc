package ocr

import "sync"

// ResultCache memoizes extraction results keyed by document content hash, so
// re-uploads of the same bytes skip the OCR pass. It is constructed once and
// handed to whoever needs it; nothing in this package holds a global instance.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]ExtractionResult
}

func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]ExtractionResult)}
}

// Get returns the cached result for a content hash (hex), if any.
func (c *ResultCache) Get(hashHex string) (ExtractionResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[hashHex]
	return res, ok
}

func (c *ResultCache) Put(hashHex string, res ExtractionResult) {
	if hashHex == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hashHex] = res
}

// Len reports the number of cached entries.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
