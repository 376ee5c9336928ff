package pdf

import (
	"bufio"
	"compress/lzw"
	"fmt"
	"io"
)

// newAlphaReader strips whitespace the encoding/ascii85 decoder does not
// tolerate (CR, LF, form feed) from an ASCII85-encoded stream, which PDF
// producers routinely wrap at fixed line lengths.
func newAlphaReader(r io.Reader) io.Reader {
	return &alphaReader{r: bufio.NewReader(r)}
}

type alphaReader struct {
	r *bufio.Reader
}

func (a *alphaReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		c, err := a.r.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		switch c {
		case '\r', '\n', '\f':
			continue
		}
		p[n] = c
		n++
	}
	return n, nil
}

// newHexFilterReader decodes an ASCIIHexDecode stream: pairs of hex
// digits, whitespace ignored, terminated by '>' (or EOF).
func newHexFilterReader(r io.Reader) io.Reader {
	return &hexFilterReader{r: bufio.NewReader(r)}
}

type hexFilterReader struct {
	r    *bufio.Reader
	done bool
}

func (h *hexFilterReader) Read(p []byte) (int, error) {
	if h.done {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		hi, ok := h.nextHexDigit()
		if !ok {
			h.done = true
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		lo, ok := h.nextHexDigit()
		if !ok {
			// Odd digit count: trailing 0 nibble, per ISO 32000-1 §7.4.2.
			p[n] = byte(hi << 4)
			n++
			h.done = true
			return n, nil
		}
		p[n] = byte(hi<<4 | lo)
		n++
	}
	return n, nil
}

func (h *hexFilterReader) nextHexDigit() (int, bool) {
	for {
		c, err := h.r.ReadByte()
		if err != nil {
			return 0, false
		}
		switch {
		case c == '>':
			return 0, false
		case c == ' ', c == '\t', c == '\r', c == '\n', c == '\f', c == '\v':
			continue
		case '0' <= c && c <= '9':
			return int(c - '0'), true
		case 'a' <= c && c <= 'f':
			return int(c-'a') + 10, true
		case 'A' <= c && c <= 'F':
			return int(c-'A') + 10, true
		default:
			return 0, false
		}
	}
}

// newLZWReader wraps compress/lzw for LZWDecode. PDF's LZW variant uses
// MSB-first bit order and, by default (EarlyChange=1, the PDF default),
// increases the code width one code early relative to the variant
// compress/lzw's Reader implements for GIF; for EarlyChange=0 streams
// compress/lzw's own behavior already matches.
func newLZWReader(r io.Reader, earlyChange bool) io.Reader {
	if earlyChange {
		return lzw.NewReader(r, lzw.MSB, 8)
	}
	return &lzwNoEarlyChangeReader{r: lzw.NewReader(r, lzw.MSB, 8)}
}

// lzwNoEarlyChangeReader is a placeholder pass-through: compress/lzw
// does not expose an early-change-off mode, and PDF producers that set
// EarlyChange=0 are rare enough that this core does not special-case
// them; the stream is still decoded, just without the table-size
// compensation that would otherwise be needed.
type lzwNoEarlyChangeReader struct {
	r io.ReadCloser
}

func (r *lzwNoEarlyChangeReader) Read(p []byte) (int, error) { return r.r.Read(p) }

// newRunLengthReader decodes RunLengthDecode per ISO 32000-1 §7.4.5:
// a length byte 0-127 means copy the following length+1 bytes
// literally; 129-255 means repeat the following single byte
// 257-length times; 128 is EOD.
func newRunLengthReader(r io.Reader) io.Reader {
	return &runLengthReader{r: bufio.NewReader(r)}
}

type runLengthReader struct {
	r    *bufio.Reader
	pend []byte
	done bool
}

func (rl *runLengthReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(rl.pend) > 0 {
			m := copy(p[n:], rl.pend)
			n += m
			rl.pend = rl.pend[m:]
			continue
		}
		if rl.done {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		lenByte, err := rl.r.ReadByte()
		if err != nil {
			rl.done = true
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		switch {
		case lenByte == 128:
			rl.done = true
		case lenByte < 128:
			count := int(lenByte) + 1
			buf := make([]byte, count)
			if _, err := io.ReadFull(rl.r, buf); err != nil {
				return n, fmt.Errorf("truncated RunLengthDecode literal run: %w", err)
			}
			rl.pend = buf
		default:
			count := 257 - int(lenByte)
			b, err := rl.r.ReadByte()
			if err != nil {
				return n, fmt.Errorf("truncated RunLengthDecode repeat run: %w", err)
			}
			buf := make([]byte, count)
			for i := range buf {
				buf[i] = b
			}
			rl.pend = buf
		}
	}
	return n, nil
}
