package source

import "context"

// MemorySource serves a ChunkedSource from a byte slice already resident
// in memory. Every chunk is "loaded" instantly from the backing slice;
// it exists so the lexer and xref resolver can be exercised, and tested,
// against the same DataMissing contract the file and HTTP sources use,
// without needing a real file or network round trip.
type MemorySource struct {
	data []byte
	c    *chunked
}

// NewMemorySource wraps data in a Source. opts controls chunk alignment
// only; since the whole slice is already available, EnsureRange never
// blocks. Reads still return DataMissing for a chunk that EnsureRange has
// not loaded (or that the LRU has evicted), and for an out-of-bounds read.
func NewMemorySource(data []byte, opts Options) *MemorySource {
	m := &MemorySource{data: data}
	m.c = newChunked(opts, m.loadChunk, nil)
	m.c.setLength(int64(len(data)))
	return m
}

func (m *MemorySource) loadChunk(_ context.Context, chunkStart int64, chunkSize int) ([]byte, error) {
	end := chunkStart + int64(chunkSize)
	if end > int64(len(m.data)) {
		end = int64(len(m.data))
	}
	if chunkStart >= end {
		return []byte{}, nil
	}
	buf := make([]byte, end-chunkStart)
	copy(buf, m.data[chunkStart:end])
	return buf, nil
}

func (m *MemorySource) Length() (int64, bool)                       { return m.c.Length() }
func (m *MemorySource) ReadByte(pos int64) (byte, error)            { return m.c.ReadByte(pos) }
func (m *MemorySource) ReadRange(pos int64, n int) ([]byte, error)  { return m.c.ReadRange(pos, n) }
func (m *MemorySource) IsRangeAvailable(pos int64, n int) bool      { return m.c.IsRangeAvailable(pos, n) }
func (m *MemorySource) EnsureRange(ctx context.Context, pos int64, n int) error {
	return m.c.EnsureRange(ctx, pos, n)
}
