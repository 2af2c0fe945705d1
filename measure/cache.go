package measure

import (
	"crypto/sha256"
	"sync"
)

type textKey struct {
	text string
	font Font
	size float64
}

type imageSize struct{ w, h int }

// Cache memoizes measurements keyed by the exact input. It is safe for concurrent use.
type Cache struct {
	mu     sync.RWMutex
	texts  map[textKey]float64
	images map[[sha256.Size]byte]imageSize
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		texts:  map[textKey]float64{},
		images: map[[sha256.Size]byte]imageSize{},
	}
}

func (c *Cache) textWidth(k textKey) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.texts[k]
	return w, ok
}

func (c *Cache) storeText(k textKey, w float64) {
	c.mu.Lock()
	c.texts[k] = w
	c.mu.Unlock()
}

func (c *Cache) imageSize(sum [sha256.Size]byte) (imageSize, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.images[sum]
	return s, ok
}

func (c *Cache) storeImage(sum [sha256.Size]byte, s imageSize) {
	c.mu.Lock()
	c.images[sum] = s
	c.mu.Unlock()
}

// Len reports the number of cached text measurements.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.texts)
}
