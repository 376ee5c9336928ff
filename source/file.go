package source

import (
	"context"
	"io"
	"os"
)

// FileSource serves a ChunkedSource from a local file opened with
// os.Open. Chunks are loaded with ReadAt, so reads from different
// goroutines never race on a shared file cursor.
type FileSource struct {
	f    *os.File
	c    *chunked
}

// NewFileSource opens path and probes its size with Stat. The file is
// kept open for the lifetime of the Source; call Close when done.
func NewFileSource(path string, opts Options) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioErrorf("open %s: %v", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ioErrorf("stat %s: %v", path, err)
	}

	fs := &FileSource{f: f}
	fs.c = newChunked(opts, fs.loadChunk, nil)
	fs.c.setLength(info.Size())
	return fs, nil
}

func (fs *FileSource) loadChunk(_ context.Context, chunkStart int64, chunkSize int) ([]byte, error) {
	buf := make([]byte, chunkSize)
	n, err := fs.f.ReadAt(buf, chunkStart)
	if err != nil && err != io.EOF {
		return nil, ioErrorf("read at %d: %v", chunkStart, err)
	}
	return buf[:n], nil
}

// Close releases the underlying file handle.
func (fs *FileSource) Close() error { return fs.f.Close() }

func (fs *FileSource) Length() (int64, bool)                      { return fs.c.Length() }
func (fs *FileSource) ReadByte(pos int64) (byte, error)           { return fs.c.ReadByte(pos) }
func (fs *FileSource) ReadRange(pos int64, n int) ([]byte, error) { return fs.c.ReadRange(pos, n) }
func (fs *FileSource) IsRangeAvailable(pos int64, n int) bool     { return fs.c.IsRangeAvailable(pos, n) }
func (fs *FileSource) EnsureRange(ctx context.Context, pos int64, n int) error {
	return fs.c.EnsureRange(ctx, pos, n)
}
