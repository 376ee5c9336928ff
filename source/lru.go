package source

import "container/list"

// chunkCache is a strict LRU over chunk slots, keyed by chunk index.
// The pack this module was grown from has no third-party LRU cache
// dependency to reach for (see DESIGN.md), so this is built on
// container/list the way the standard library's own documentation
// recommends for a promote-on-hit / evict-on-insert cache.
type chunkCache struct {
	capacity int
	ll       *list.List
	index    map[int64]*list.Element
}

type chunkEntry struct {
	index int64
	data  []byte
}

func newChunkCache(capacity int) *chunkCache {
	return &chunkCache{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[int64]*list.Element, capacity),
	}
}

// get returns the chunk at idx and promotes it to most-recently-used.
func (c *chunkCache) get(idx int64) ([]byte, bool) {
	el, ok := c.index[idx]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*chunkEntry).data, true
}

// put inserts or replaces the chunk at idx, evicting the least recently
// used chunk if the cache is at capacity. A chunk is only ever inserted
// here once it is fully populated (see Source.EnsureRange implementations).
func (c *chunkCache) put(idx int64, data []byte) {
	if el, ok := c.index[idx]; ok {
		el.Value.(*chunkEntry).data = data
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&chunkEntry{index: idx, data: data})
	c.index[idx] = el

	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.index, oldest.Value.(*chunkEntry).index)
	}
}

func (c *chunkCache) has(idx int64) bool {
	_, ok := c.index[idx]
	return ok
}
