package pdf

import (
	"container/list"
	"io"

	"github.com/dsanderman/pdfcore/internal/types"
	"github.com/dsanderman/pdfcore/source"
)

// sourceReader adapts a source.Source into an io.Reader reading
// forward from a fixed starting offset. A read that the source cannot
// satisfy yet returns the *pdferr.DataMissing verbatim as the error
// value; buffer.reload recognizes it and panics with it directly so it
// survives to Document.resolve's retry loop with its Pos/Len intact.
type sourceReader struct {
	src source.Source
	pos int64
}

func (r *sourceReader) Read(p []byte) (int, error) {
	if length, ok := r.src.Length(); ok {
		if r.pos >= length {
			return 0, io.EOF
		}
		if remaining := length - r.pos; remaining < int64(len(p)) {
			p = p[:remaining]
		}
	}
	if len(p) == 0 {
		return 0, io.EOF
	}
	data, err := r.src.ReadRange(r.pos, len(p))
	if err != nil {
		return 0, err
	}
	copy(p, data)
	r.pos += int64(len(data))
	return len(data), nil
}

// objectCache is a bounded LRU mapping an object id to its already
// resolved types.Object, the sole mutation point being a resolve cache
// miss (see ObjectCache in SPEC_FULL.md §3.4).
type objectCache struct {
	capacity int
	ll       *list.List
	index    map[types.Objptr]*list.Element
}

type objectCacheEntry struct {
	ptr types.Objptr
	obj types.Object
}

func newObjectCache(capacity int) *objectCache {
	return &objectCache{capacity: capacity, ll: list.New(), index: make(map[types.Objptr]*list.Element, capacity)}
}

func (c *objectCache) get(ptr types.Objptr) (types.Object, bool) {
	el, ok := c.index[ptr]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*objectCacheEntry).obj, true
}

func (c *objectCache) put(ptr types.Objptr, obj types.Object) {
	if el, ok := c.index[ptr]; ok {
		el.Value.(*objectCacheEntry).obj = obj
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&objectCacheEntry{ptr: ptr, obj: obj})
	c.index[ptr] = el
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.index, oldest.Value.(*objectCacheEntry).ptr)
	}
}

// pageCache is the Page-indexed counterpart of objectCache, keyed by
// page index rather than object id.
type pageCache struct {
	capacity int
	ll       *list.List
	index    map[int]*list.Element
}

type pageCacheEntry struct {
	index int
	page  Page
}

func newPageCache(capacity int) *pageCache {
	return &pageCache{capacity: capacity, ll: list.New(), index: make(map[int]*list.Element, capacity)}
}

func (c *pageCache) get(i int) (Page, bool) {
	el, ok := c.index[i]
	if !ok {
		return Page{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*pageCacheEntry).page, true
}

func (c *pageCache) put(i int, p Page) {
	if el, ok := c.index[i]; ok {
		el.Value.(*pageCacheEntry).page = p
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&pageCacheEntry{index: i, page: p})
	c.index[i] = el
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.index, oldest.Value.(*pageCacheEntry).index)
	}
}
