// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdf

import (
	"bytes"

	"github.com/dsanderman/pdfcore/internal/types"
	"github.com/dsanderman/pdfcore/pdferr"
)

// maxXrefPrevChain bounds how many /Prev links a trailer chain may
// traverse before readHeaderAndXref gives up, guarding against a cycle
// in a corrupted file.
const maxXrefPrevChain = 1024

// readHeaderAndXref locates the file's header, trailer, and
// cross-reference data. It panics with a *pdferr.DataMissing when a
// span of the source has not been loaded yet (serviced by
// Document.withRetry) and with a *pdferr.CorruptedPDF or
// *pdferr.ParseError for genuine structural problems.
func (d *Document) readHeaderAndXref() {
	length, ok := d.src.Length()
	if !ok {
		panic(pdferr.NewCorrupted("source has unknown length"))
	}
	d.end = length

	head := d.mustReadRange(0, 10)
	if !bytes.HasPrefix(head, []byte("%PDF-1.")) || head[7] < '0' || head[7] > '7' || head[8] != '\r' && head[8] != '\n' {
		panic(pdferr.NewCorrupted("not a PDF file: invalid header"))
	}

	const endChunk = 1024
	tailStart := d.end - endChunk
	if tailStart < 0 {
		tailStart = 0
	}
	tail := d.mustReadRange(tailStart, int(d.end-tailStart))
	trimmed := bytes.TrimRight(tail, "\r\n\t ")
	if !bytes.HasSuffix(trimmed, []byte("%%EOF")) {
		panic(pdferr.NewCorrupted("not a PDF file: missing %%EOF"))
	}

	i := findLastLine(tail, "startxref")
	if i < 0 {
		panic(pdferr.NewCorrupted("malformed PDF file: missing final startxref"))
	}
	pos := tailStart + int64(i)
	b := newBuffer(&sourceReader{src: d.src, pos: pos}, pos)
	if b.readToken() != keyword("startxref") {
		panic(pdferr.NewCorrupted("malformed PDF file: missing startxref"))
	}
	startxref, ok := b.readToken().(int64)
	if !ok {
		panic(pdferr.NewCorrupted("malformed PDF file: startxref not followed by integer"))
	}

	xref, trailerptr, trailer := d.readXref(startxref, map[int64]bool{})
	d.xref = xref
	d.trailer = trailer
	d.trailerptr = trailerptr
}

// mustReadRange ensures and returns a byte span, panicking with the
// underlying *pdferr.DataMissing if the span is not yet loaded.
func (d *Document) mustReadRange(pos int64, n int) []byte {
	data, err := d.src.ReadRange(pos, n)
	if err != nil {
		panic(err)
	}
	return data
}

func (d *Document) readXref(offset int64, seen map[int64]bool) ([]types.Xref, types.Objptr, types.Dict) {
	if seen[offset] {
		panic(pdferr.NewCorrupted("cross-reference table cycle at offset %d", offset))
	}
	if len(seen) > maxXrefPrevChain {
		panic(pdferr.NewCorrupted("cross-reference /Prev chain too long"))
	}
	seen[offset] = true

	b := newBuffer(&sourceReader{src: d.src, pos: offset}, offset)
	tok := b.readToken()
	if tok == keyword("xref") {
		return d.readXrefTable(b, seen)
	}
	if _, ok := tok.(int64); ok {
		b.unreadToken(tok)
		return d.readXrefStream(b, seen)
	}
	panic(pdferr.NewCorrupted("cross-reference table not found at offset %d: %v", offset, tok))
}

func (d *Document) readXrefStream(b *buffer, seen map[int64]bool) ([]types.Xref, types.Objptr, types.Dict) {
	obj1 := b.readObject()
	obj, ok := obj1.(types.Objdef)
	if !ok {
		panic(pdferr.NewCorrupted("cross-reference stream not found: %v", objfmt(obj1)))
	}
	strmptr := obj.Ptr
	strm, ok := obj.Obj.(types.Stream)
	if !ok {
		panic(pdferr.NewCorrupted("cross-reference stream not found: %v", objfmt(obj)))
	}
	if strm.Hdr[types.Name("Type")] != types.Name("XRef") {
		panic(pdferr.NewCorrupted("xref stream does not have type XRef"))
	}
	size, ok := strm.Hdr[types.Name("Size")].(int64)
	if !ok {
		panic(pdferr.NewCorrupted("xref stream missing /Size"))
	}
	if size < 0 || size > 100_000_000 {
		panic(pdferr.NewCorrupted("xref stream declares implausible /Size %d", size))
	}
	table := make([]types.Xref, size)
	table = d.readXrefStreamData(strm, table, size)

	for prevoff := strm.Hdr[types.Name("Prev")]; prevoff != nil; {
		off, ok := prevoff.(int64)
		if !ok {
			panic(pdferr.NewCorrupted("xref /Prev is not an integer: %v", objfmt(prevoff)))
		}
		b := newBuffer(&sourceReader{src: d.src, pos: off}, off)
		if seen[off] {
			panic(pdferr.NewCorrupted("cross-reference table cycle at offset %d", off))
		}
		if len(seen) > maxXrefPrevChain {
			panic(pdferr.NewCorrupted("cross-reference /Prev chain too long"))
		}
		seen[off] = true

		obj1 := b.readObject()
		obj, ok := obj1.(types.Objdef)
		if !ok {
			panic(pdferr.NewCorrupted("xref /Prev stream not found: %v", objfmt(obj1)))
		}
		prevstrm, ok := obj.Obj.(types.Stream)
		if !ok {
			panic(pdferr.NewCorrupted("xref /Prev stream not found: %v", objfmt(obj)))
		}
		prevoff = prevstrm.Hdr[types.Name("Prev")]
		prev := Value{d: d, ptr: obj.Ptr, data: prevstrm}
		if prev.Kind() != StreamKind {
			panic(pdferr.NewCorrupted("xref /Prev stream is not a stream"))
		}
		if prev.Key("Type").Name() != "XRef" {
			panic(pdferr.NewCorrupted("xref /Prev stream does not have type XRef"))
		}
		psize := prev.Key("Size").Int64()
		if psize > size {
			panic(pdferr.NewCorrupted("xref /Prev stream larger than last stream"))
		}
		table = d.readXrefStreamData(prevstrm, table, psize)
	}

	return table, strmptr, strm.Hdr
}

func (d *Document) readXrefStreamData(strm types.Stream, table []types.Xref, size int64) []types.Xref {
	index, _ := strm.Hdr[types.Name("Index")].(types.Array)
	if index == nil {
		index = types.Array{int64(0), size}
	}
	if len(index)%2 != 0 {
		panic(pdferr.NewCorrupted("invalid xref stream /Index array %v", objfmt(index)))
	}
	ww, ok := strm.Hdr[types.Name("W")].(types.Array)
	if !ok {
		panic(pdferr.NewCorrupted("xref stream missing /W array"))
	}

	var w []int
	for _, x := range ww {
		i, ok := x.(int64)
		if !ok || int64(int(i)) != i {
			panic(pdferr.NewCorrupted("invalid xref stream /W array %v", objfmt(ww)))
		}
		w = append(w, int(i))
	}
	if len(w) < 3 {
		panic(pdferr.NewCorrupted("invalid xref stream /W array %v", objfmt(ww)))
	}

	v := Value{d: d, data: strm}
	wtotal := 0
	for _, wid := range w {
		wtotal += wid
	}
	buf := make([]byte, wtotal)
	data := v.Reader()
	defer data.Close()

	for len(index) > 0 {
		start, ok1 := index[0].(int64)
		n, ok2 := index[1].(int64)
		if !ok1 || !ok2 {
			panic(pdferr.NewCorrupted("malformed xref stream /Index pair %v %v", objfmt(index[0]), objfmt(index[1])))
		}
		if n < 0 || n > 10_000_000 || start < 0 || start+n < start {
			panic(pdferr.NewCorrupted("xref stream /Index pair out of range %d %d", start, n))
		}
		index = index[2:]
		for i := int64(0); i < n; i++ {
			if _, err := readFull(data, buf); err != nil {
				panic(pdferr.NewParse("reading xref stream: %v", err))
			}
			v1 := decodeInt(buf[0:w[0]])
			if w[0] == 0 {
				v1 = 1
			}
			v2 := decodeInt(buf[w[0] : w[0]+w[1]])
			v3 := decodeInt(buf[w[0]+w[1] : w[0]+w[1]+w[2]])
			x := int(start + i)
			for cap(table) <= x {
				table = append(table[:cap(table)], types.Xref{})
			}
			if len(table) <= x {
				table = table[:x+1]
			}
			if table[x].Ptr != (types.Objptr{}) {
				continue
			}
			switch v1 {
			case 0:
				table[x] = types.Xref{Ptr: types.Objptr{Gen: 65535}}
			case 1:
				table[x] = types.Xref{Ptr: types.Objptr{ID: uint32(x), Gen: uint16(v3)}, Offset: int64(v2)}
			case 2:
				table[x] = types.Xref{Ptr: types.Objptr{ID: uint32(x)}, InStream: true, Stream: types.Objptr{ID: uint32(v2)}, Offset: int64(v3)}
			}
		}
	}
	return table
}

func decodeInt(b []byte) int {
	x := 0
	for _, c := range b {
		x = x<<8 | int(c)
	}
	return x
}

func (d *Document) readXrefTable(b *buffer, seen map[int64]bool) ([]types.Xref, types.Objptr, types.Dict) {
	var table []types.Xref
	table = readXrefTableData(b, table)

	trailer, ok := b.readObject().(types.Dict)
	if !ok {
		panic(pdferr.NewCorrupted("xref table not followed by trailer dictionary"))
	}

	for prevoff := trailer[types.Name("Prev")]; prevoff != nil; {
		off, ok := prevoff.(int64)
		if !ok {
			panic(pdferr.NewCorrupted("xref /Prev is not an integer: %v", objfmt(prevoff)))
		}
		if seen[off] {
			panic(pdferr.NewCorrupted("cross-reference table cycle at offset %d", off))
		}
		if len(seen) > maxXrefPrevChain {
			panic(pdferr.NewCorrupted("cross-reference /Prev chain too long"))
		}
		seen[off] = true

		b := newBuffer(&sourceReader{src: d.src, pos: off}, off)
		tok := b.readToken()
		if tok != keyword("xref") {
			panic(pdferr.NewCorrupted("xref /Prev does not point to an xref table"))
		}
		table = readXrefTableData(b, table)

		prevTrailer, ok := b.readObject().(types.Dict)
		if !ok {
			panic(pdferr.NewCorrupted("xref /Prev table not followed by trailer dictionary"))
		}
		prevoff = prevTrailer[types.Name("Prev")]
	}

	size, ok := trailer[types.Name("Size")].(int64)
	if !ok {
		panic(pdferr.NewCorrupted("trailer missing /Size entry"))
	}
	if size < 0 {
		panic(pdferr.NewCorrupted("trailer declares negative /Size"))
	}
	if size < int64(len(table)) {
		table = table[:size]
	}

	return table, types.Objptr{}, trailer
}

func readXrefTableData(b *buffer, table []types.Xref) []types.Xref {
	for {
		tok := b.readToken()
		if tok == keyword("trailer") {
			break
		}
		start, ok1 := tok.(int64)
		n, ok2 := b.readToken().(int64)
		if !ok1 || !ok2 {
			panic(pdferr.NewCorrupted("malformed xref table"))
		}
		if n < 0 || n > 10_000_000 || start < 0 || start+n < start {
			panic(pdferr.NewCorrupted("xref table subsection out of range %d %d", start, n))
		}
		for i := int64(0); i < n; i++ {
			off, ok1 := b.readToken().(int64)
			gen, ok2 := b.readToken().(int64)
			alloc, ok3 := b.readToken().(keyword)
			if !ok1 || !ok2 || !ok3 || alloc != keyword("f") && alloc != keyword("n") {
				panic(pdferr.NewCorrupted("malformed xref table entry"))
			}
			x := int(start + i)
			for cap(table) <= x {
				table = append(table[:cap(table)], types.Xref{})
			}
			if len(table) <= x {
				table = table[:x+1]
			}
			if alloc == "n" && table[x].Offset == 0 {
				table[x] = types.Xref{Ptr: types.Objptr{ID: uint32(x), Gen: uint16(gen)}, Offset: int64(off)}
			}
		}
	}
	return table
}

func findLastLine(buf []byte, s string) int {
	bs := []byte(s)
	max := len(buf)
	for {
		i := bytes.LastIndex(buf[:max], bs)
		if i <= 0 || i+len(bs) >= len(buf) {
			return -1
		}
		if (buf[i-1] == '\n' || buf[i-1] == '\r') && (buf[i+len(bs)] == '\n' || buf[i+len(bs)] == '\r') {
			return i
		}
		max = i
	}
}

// readFull reads exactly len(buf) bytes, the way io.ReadFull does, but
// without importing io just for this one call site inside this file.
func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			if n == len(buf) {
				return n, nil
			}
			return n, err
		}
	}
	return n, nil
}
