// Package source implements ChunkedSource: a random-access byte interface
// over a backing medium (memory, local file, or HTTP) that never requires
// the whole file to be resident. Reads that fall in an unloaded chunk
// return a *pdferr.DataMissing instead of blocking or panicking; the
// caller loads the named range with EnsureRange and retries.
package source

import (
	"context"
	"fmt"

	"github.com/dsanderman/pdfcore/pdferr"
)

// Options configures chunking and cache size. A zero or negative field
// is replaced with its DefaultOptions value, so the zero value selects
// the defaults.
type Options struct {
	// ChunkSize is the alignment and minimum load granularity, in bytes.
	ChunkSize int
	// MaxCachedChunks bounds the LRU of resident chunks.
	MaxCachedChunks int
}

// DefaultOptions matches spec defaults: 64 KiB chunks, 20 chunks cached
// (1.25 MiB resident at a time).
func DefaultOptions() Options {
	return Options{ChunkSize: 65536, MaxCachedChunks: 20}
}

func (o Options) normalized() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 65536
	}
	if o.MaxCachedChunks <= 0 {
		o.MaxCachedChunks = 20
	}
	return o
}

// ProgressFunc is invoked after each chunk is successfully loaded with
// the cumulative bytes loaded so far and the total length, if known.
type ProgressFunc func(loaded, total int64)

// Source is the random-access interface every component above it
// (lexer, xref resolver, content extractor) consumes. Implementations
// must satisfy the copy-on-cross-chunk rule: ReadRange spanning more
// than one chunk returns an owned copy, never a borrowed slice.
type Source interface {
	// Length reports the logical byte span, and whether it is known yet.
	// It becomes known after the first successful probe of the medium.
	Length() (int64, bool)

	// ReadByte returns the byte at pos, or a *pdferr.DataMissing if the
	// chunk containing pos has not been loaded.
	ReadByte(pos int64) (byte, error)

	// ReadRange returns n bytes starting at pos, or a *pdferr.DataMissing
	// naming the first absent byte and the minimal span to load. A
	// result spanning more than one chunk is always a fresh copy.
	ReadRange(pos int64, n int) ([]byte, error)

	// IsRangeAvailable reports whether [pos, pos+n) is entirely resident.
	IsRangeAvailable(pos int64, n int) bool

	// EnsureRange blocks until [pos, pos+n) is resident, loading whole
	// chunks as needed (never fewer bytes than requested, possibly
	// more). It returns *pdferr.IOError on a medium failure and nothing
	// else; a context cancellation surfaces as *pdferr.IOError wrapping
	// ctx.Err().
	EnsureRange(ctx context.Context, pos int64, n int) error
}

// chunkIndex and chunkOffset split a byte position into its chunk
// coordinates for a given chunk size.
func chunkIndex(pos int64, chunkSize int) int64 {
	return pos / int64(chunkSize)
}

func chunkOffset(pos int64, chunkSize int) int {
	return int(pos % int64(chunkSize))
}

// missing builds a DataMissing for a read of n bytes starting at pos
// that needs a chunk loaded to succeed. The reported length is n (at
// least 1); callers pass the span from the first absent byte to the end
// of the read.
func missing(pos int64, n int) error {
	if n <= 0 {
		n = 1
	}
	return &pdferr.DataMissing{Pos: pos, Len: n}
}

func ioErrorf(format string, args ...any) error {
	return &pdferr.IOError{Message: fmt.Sprintf(format, args...)}
}
