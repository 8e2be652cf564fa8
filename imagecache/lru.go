package imagecache

import (
	"container/list"
	"image"
	"sync"
)

// lruCache is a thread-safe LRU bounded by the summed weight of its entries
type lruCache struct {
	maxWeight int64
	weight    int64
	evictList *list.List
	items     map[string]*list.Element
	mu        sync.Mutex
}

// entry is stored in the cache
type entry struct {
	key    string
	img    image.Image
	weight int64
}

func newLRUCache(maxWeight int64) *lruCache {
	return &lruCache{
		maxWeight: maxWeight,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}
}

// Get retrieves an image and marks it most recently used
func (c *lruCache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, exists := c.items[key]
	if !exists {
		return nil, false
	}
	c.evictList.MoveToFront(node)
	return node.Value.(*entry).img, true
}

// Put adds or replaces an image. Entries heavier than the whole budget are not stored.
func (c *lruCache) Put(key string, img image.Image, weight int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if weight > c.maxWeight {
		return
	}

	if node, exists := c.items[key]; exists {
		ent := node.Value.(*entry)
		c.weight += weight - ent.weight
		ent.img = img
		ent.weight = weight
		c.evictList.MoveToFront(node)
	} else {
		node := c.evictList.PushFront(&entry{key: key, img: img, weight: weight})
		c.items[key] = node
		c.weight += weight
	}

	for c.weight > c.maxWeight {
		c.removeOldest()
	}
}

// removeOldest removes the least recently used item
func (c *lruCache) removeOldest() {
	node := c.evictList.Back()
	if node == nil {
		return
	}
	c.evictList.Remove(node)
	ent := node.Value.(*entry)
	delete(c.items, ent.key)
	c.weight -= ent.weight
}

// Len returns the number of cached images
func (c *lruCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Weight returns the summed weight of cached images
func (c *lruCache) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}
