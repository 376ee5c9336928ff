package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPSource serves a ChunkedSource over HTTP Range requests. It probes
// the target with HEAD to learn the content length and whether the
// server advertises byte-range support; if the server refuses Range
// requests, the whole body is fetched once and treated as a single
// chunk covering the entire file.
type HTTPSource struct {
	client       *http.Client
	url          string
	c            *chunked
	acceptRanges bool
	wholeBody    []byte
	haveWhole    bool
}

// NewHTTPSource probes url and returns a Source backed by it. The
// context bounds the initial HEAD probe only; later reads are bounded
// by the context passed to EnsureRange.
func NewHTTPSource(ctx context.Context, url string, opts Options, progress ProgressFunc) (*HTTPSource, error) {
	client := http.DefaultClient

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, ioErrorf("build HEAD request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ioErrorf("HEAD %s: %v", url, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, ioErrorf("HEAD %s: status %s", url, resp.Status)
	}

	hs := &HTTPSource{
		client:       client,
		url:          url,
		acceptRanges: resp.Header.Get("Accept-Ranges") == "bytes",
	}
	hs.c = newChunked(opts, hs.loadChunk, progress)
	if resp.ContentLength >= 0 {
		hs.c.setLength(resp.ContentLength)
	}
	return hs, nil
}

func (hs *HTTPSource) loadChunk(ctx context.Context, chunkStart int64, chunkSize int) ([]byte, error) {
	if !hs.acceptRanges {
		if !hs.haveWhole {
			if err := hs.fetchWholeBody(ctx); err != nil {
				return nil, err
			}
		}
		end := chunkStart + int64(chunkSize)
		if end > int64(len(hs.wholeBody)) {
			end = int64(len(hs.wholeBody))
		}
		if chunkStart >= end {
			return []byte{}, nil
		}
		buf := make([]byte, end-chunkStart)
		copy(buf, hs.wholeBody[chunkStart:end])
		return buf, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hs.url, nil)
	if err != nil {
		return nil, ioErrorf("build GET request: %v", err)
	}
	end := chunkStart + int64(chunkSize) - 1
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", chunkStart, end))

	resp, err := hs.client.Do(req)
	if err != nil {
		return nil, ioErrorf("GET %s range %d-%d: %v", hs.url, chunkStart, end, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		// Server ignored the Range header; fall back to treating the
		// whole body as one chunk from here on.
		hs.acceptRanges = false
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, ioErrorf("read full body from %s: %v", hs.url, err)
		}
		hs.wholeBody = data
		hs.haveWhole = true
		hs.c.setLength(int64(len(data)))
		end := chunkStart + int64(chunkSize)
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		if chunkStart >= end {
			return []byte{}, nil
		}
		buf := make([]byte, end-chunkStart)
		copy(buf, data[chunkStart:end])
		return buf, nil
	}
	if resp.StatusCode != http.StatusPartialContent {
		return nil, ioErrorf("GET %s range %d-%d: status %s", hs.url, chunkStart, end, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ioErrorf("read range %d-%d from %s: %v", chunkStart, end, hs.url, err)
	}
	return data, nil
}

func (hs *HTTPSource) fetchWholeBody(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hs.url, nil)
	if err != nil {
		return ioErrorf("build GET request: %v", err)
	}
	resp, err := hs.client.Do(req)
	if err != nil {
		return ioErrorf("GET %s: %v", hs.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return ioErrorf("GET %s: status %s", hs.url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ioErrorf("read body from %s: %v", hs.url, err)
	}
	hs.wholeBody = data
	hs.haveWhole = true
	hs.c.setLength(int64(len(data)))
	return nil
}

func (hs *HTTPSource) Length() (int64, bool)                      { return hs.c.Length() }
func (hs *HTTPSource) ReadByte(pos int64) (byte, error)           { return hs.c.ReadByte(pos) }
func (hs *HTTPSource) ReadRange(pos int64, n int) ([]byte, error) { return hs.c.ReadRange(pos, n) }
func (hs *HTTPSource) IsRangeAvailable(pos int64, n int) bool     { return hs.c.IsRangeAvailable(pos, n) }
func (hs *HTTPSource) EnsureRange(ctx context.Context, pos int64, n int) error {
	return hs.c.EnsureRange(ctx, pos, n)
}
