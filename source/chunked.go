package source

import (
	"context"
	"sync"
)

// loader fetches the full contents of the chunk at the given byte
// offset (aligned to chunkSize) into a freshly allocated buffer sized to
// the number of bytes actually available (the last chunk of a file is
// usually shorter than chunkSize). Implementations must not return a
// partially-read buffer: on error, nothing is committed to the cache.
type loader func(ctx context.Context, chunkStart int64, chunkSize int) ([]byte, error)

// chunked is the shared bookkeeping (length, LRU, chunk alignment) for
// all three backing media. Each medium supplies its own loader and its
// own way of discovering Length.
type chunked struct {
	mu        sync.Mutex
	opts      Options
	length    int64
	haveLen   bool
	cache     *chunkCache
	load      loader
	onProgress ProgressFunc
	loadedSum int64
}

func newChunked(opts Options, load loader, progress ProgressFunc) *chunked {
	opts = opts.normalized()
	return &chunked{
		opts:       opts,
		cache:      newChunkCache(opts.MaxCachedChunks),
		load:       load,
		onProgress: progress,
	}
}

func (c *chunked) setLength(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.length = n
	c.haveLen = true
}

func (c *chunked) Length() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.length, c.haveLen
}

func (c *chunked) chunkSizeAt(chunkStart int64) int {
	size := c.opts.ChunkSize
	if c.haveLen {
		if remaining := c.length - chunkStart; remaining < int64(size) {
			if remaining < 0 {
				remaining = 0
			}
			size = int(remaining)
		}
	}
	return size
}

func (c *chunked) IsRangeAvailable(pos int64, n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rangeAvailableLocked(pos, n)
}

func (c *chunked) rangeAvailableLocked(pos int64, n int) bool {
	if n <= 0 {
		return true
	}
	end := pos + int64(n)
	size := int64(c.opts.ChunkSize)
	for p := pos; p < end; {
		idx := chunkIndex(p, c.opts.ChunkSize)
		if !c.cache.has(idx) {
			return false
		}
		next := (idx + 1) * size
		p = next
	}
	return true
}

func (c *chunked) ReadByte(pos int64) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := chunkIndex(pos, c.opts.ChunkSize)
	data, ok := c.cache.get(idx)
	if !ok {
		return 0, missing(pos, 1)
	}
	off := chunkOffset(pos, c.opts.ChunkSize)
	if off >= len(data) {
		return 0, missing(pos, 1)
	}
	return data[off], nil
}

func (c *chunked) ReadRange(pos int64, n int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 {
		return nil, nil
	}
	if !c.rangeAvailableLocked(pos, n) {
		return nil, c.missingSpanLocked(pos, n)
	}

	out := make([]byte, 0, n)
	remaining := n
	p := pos
	for remaining > 0 {
		idx := chunkIndex(p, c.opts.ChunkSize)
		data, _ := c.cache.get(idx)
		off := chunkOffset(p, c.opts.ChunkSize)
		avail := len(data) - off
		if avail <= 0 {
			return nil, missing(p, remaining)
		}
		take := avail
		if take > remaining {
			take = remaining
		}
		out = append(out, data[off:off+take]...)
		remaining -= take
		p += int64(take)
	}
	return out, nil
}

// missingSpanLocked finds the first absent byte in [pos, pos+n) and the
// minimal contiguous span that would satisfy the read if loaded.
func (c *chunked) missingSpanLocked(pos int64, n int) error {
	end := pos + int64(n)
	size := int64(c.opts.ChunkSize)
	for p := pos; p < end; p += size - (p % size) {
		idx := chunkIndex(p, c.opts.ChunkSize)
		if !c.cache.has(idx) {
			need := int(end - p)
			return missing(p, need)
		}
	}
	return missing(pos, n)
}

func (c *chunked) EnsureRange(ctx context.Context, pos int64, n int) error {
	if n <= 0 {
		return nil
	}
	end := pos + int64(n)
	size := int64(c.opts.ChunkSize)

	for p := pos; p < end; {
		idx := chunkIndex(p, c.opts.ChunkSize)
		chunkStart := idx * size

		c.mu.Lock()
		already := c.cache.has(idx)
		c.mu.Unlock()

		if !already {
			select {
			case <-ctx.Done():
				return ioErrorf("context canceled: %v", ctx.Err())
			default:
			}

			want := c.chunkSizeAt(chunkStart)
			if want <= 0 {
				break
			}
			data, err := c.load(ctx, chunkStart, want)
			if err != nil {
				return err
			}

			c.mu.Lock()
			c.cache.put(idx, data)
			c.loadedSum += int64(len(data))
			loaded, total := c.loadedSum, c.length
			haveLen := c.haveLen
			c.mu.Unlock()

			if c.onProgress != nil {
				if !haveLen {
					total = 0
				}
				c.onProgress(loaded, total)
			}
		}

		chunkEnd := chunkStart + size
		p = chunkEnd
	}
	return nil
}
