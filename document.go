// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pdf implements progressive reading of PDF files: opening a
// Document does not require the whole file in memory, and pages,
// objects, and text can be pulled in as they are asked for.
//
// # Overview
//
// A PDF is a graph of Values, each with one of the following Kinds:
//
//	NullKind, IntegerKind, RealKind, BoolKind, NameKind,
//	StringKind, DictKind, ArrayKind, StreamKind
//
// The accessors on Value -- Int64, Float64, Bool, Name, and so on --
// return a view of the data as the given type, returning a zero result
// when the Value is not of that kind. This makes it possible to
// traverse a PDF's structure without writing error checking at every
// step, at the cost that mistakes can go unreported.
//
// Page and Font wrap specific dictionary shapes with typed accessors.
// They are implemented purely in terms of Value and could be built
// outside this package; other structures can be interpreted the same
// way by callers that need them.
package pdf

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/ascii85"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dsanderman/pdfcore/internal/decrypter"
	"github.com/dsanderman/pdfcore/internal/types"
	"github.com/dsanderman/pdfcore/pdferr"
	"github.com/dsanderman/pdfcore/source"
)

// Re-export the error taxonomy under the pdf package so callers do not
// need to import pdferr directly to type-switch on errors returned here.
type (
	DataMissing  = pdferr.DataMissing
	IOError      = pdferr.IOError
	ParseError   = pdferr.ParseError
	CorruptedPDF = pdferr.CorruptedPDF
	Unsupported  = pdferr.Unsupported
)

// maxResolveRetries bounds how many times a Document will service a
// DataMissing internally before giving up and reporting corruption. A
// well-behaved Source always makes progress (EnsureRange either loads
// the range or returns an IOError), so this only guards against a
// Source that reports a range as both missing and unloadable.
const maxResolveRetries = 64

// A Document is a single PDF file open for reading, backed by a
// ChunkedSource. Object and page lookups service any DataMissing they
// encounter by calling EnsureRange on the underlying source and
// retrying, so callers of the public API do not see DataMissing unless
// the source's own EnsureRange itself fails.
type Document struct {
	ctx        context.Context
	src        source.Source
	end        int64
	xref       []types.Xref
	trailer    types.Dict
	trailerptr types.Objptr
	objCache   *objectCache
	pageCache  *pageCache
	closer     io.Closer
}

// Open builds a Document from an already-constructed Source. The
// Source must have EnsureRange-able access to at least its final bytes
// (trailer/xref) and its header for Open to succeed.
func Open(ctx context.Context, src source.Source) (*Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	d := &Document{
		ctx:       ctx,
		src:       src,
		objCache:  newObjectCache(1000),
		pageCache: newPageCache(1000),
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// OpenFile opens the local file at path as a Document.
func OpenFile(ctx context.Context, path string, opts source.Options) (*Document, error) {
	fs, err := source.NewFileSource(path, opts)
	if err != nil {
		return nil, err
	}
	d, err := Open(ctx, fs)
	if err != nil {
		fs.Close()
		return nil, err
	}
	d.closer = fs
	return d, nil
}

// OpenURL opens a remote PDF served over HTTP as a Document, using
// range requests to avoid downloading the whole file up front.
func OpenURL(ctx context.Context, url string, opts source.Options, progress source.ProgressFunc) (*Document, error) {
	hs, err := source.NewHTTPSource(ctx, url, opts, progress)
	if err != nil {
		return nil, err
	}
	return Open(ctx, hs)
}

// Close releases any resources the Document itself opened (a file
// handle for OpenFile; a no-op for Open and OpenURL).
func (d *Document) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// withRetry runs fn, servicing any *pdferr.DataMissing it returns by
// calling EnsureRange on the source and retrying, up to
// maxResolveRetries times.
func (d *Document) withRetry(fn func() error) error {
	for attempt := 0; attempt < maxResolveRetries; attempt++ {
		err := fn()
		var dm *pdferr.DataMissing
		if !errors.As(err, &dm) {
			return err
		}
		if ensureErr := d.src.EnsureRange(d.ctx, dm.Pos, dm.Len); ensureErr != nil {
			return ensureErr
		}
	}
	return pdferr.NewCorrupted("exceeded retry budget servicing DataMissing")
}

// catch converts a panic raised inside fn into an error: any panic value
// that is an error (*pdferr.DataMissing and the other *pdferr.* values,
// but also a runtime error) passes through as itself; any other value
// becomes a ParseError carrying its text.
func catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = pdferr.NewParse("%v", r)
		}
	}()
	fn()
	return nil
}

func (d *Document) init() error {
	return d.withRetry(func() error {
		return catch(func() {
			d.readHeaderAndXref()
			if err := decrypter.Detect(d.trailer); err != nil {
				panic(&pdferr.Unsupported{Feature: "encryption"})
			}
		})
	})
}

func (d *Document) trailerValue() Value {
	return Value{d: d, ptr: d.trailerptr, data: d.trailer}
}

// Catalog returns the document catalog (the trailer's /Root entry).
func (d *Document) Catalog() Value {
	return d.trailerValue().Key("Root")
}

// PagesDict returns the root of the page tree (the catalog's /Pages entry).
func (d *Document) PagesDict() Value {
	return d.Catalog().Key("Pages")
}

// resolve dereferences x, which may be a types.Objptr or any directly
// embedded value, in the context of parent (the object the reference
// was read from, used to identify the innermost enclosing offset for
// diagnostics). It always services DataMissing internally.
func (d *Document) resolve(parent types.Objptr, x any) Value {
	var v Value
	err := d.withRetry(func() error {
		return catch(func() {
			v = d.resolveOnce(parent, x)
		})
	})
	if err != nil {
		slog.Debug("resolve failed", slog.Any("error", err))
		return Value{}
	}
	return v
}

func (d *Document) resolveOnce(parent types.Objptr, x any) Value {
	if ptr, ok := x.(types.Objptr); ok {
		if cached, ok := d.objCache.get(ptr); ok {
			return Value{d: d, ptr: ptr, data: cached}
		}
		if ptr.ID >= uint32(len(d.xref)) {
			return Value{}
		}
		xref := d.xref[ptr.ID]
		if xref.Ptr != ptr || (!xref.InStream && xref.Offset == 0) {
			slog.Debug("reference to a free or missing object resolves to null", slog.Any("ptr", ptr))
			return Value{}
		}

		var obj types.Object
		if xref.InStream {
			obj = d.readFromObjStm(parent, xref, 0)
		} else {
			b := newBuffer(&sourceReader{src: d.src, pos: xref.Offset}, xref.Offset)
			o := b.readObject()
			def, ok := o.(types.Objdef)
			if !ok {
				panic(pdferr.NewCorrupted("loading %v: found %T instead of an object definition", ptr, o))
			}
			if def.Ptr != ptr {
				panic(pdferr.NewCorrupted("loading %v: found %v", ptr, def.Ptr))
			}
			obj = def.Obj
		}
		d.objCache.put(ptr, obj)
		x = obj
		parent = ptr
	}

	switch x := x.(type) {
	case nil, bool, int64, float64, types.Name, types.Dict, types.Array, types.Stream, string:
		return Value{d: d, ptr: parent, data: x}
	default:
		panic(pdferr.NewCorrupted("unexpected value type %T in resolve", x))
	}
}

func (d *Document) readFromObjStm(parent types.Objptr, xref types.Xref, depth int) types.Object {
	if depth > 32 {
		panic(pdferr.NewCorrupted("reference cycle resolving compressed object"))
	}
	strm := d.resolve(parent, xref.Stream)
	if strm.Kind() != StreamKind {
		panic(pdferr.NewCorrupted("compressed object stream is not a stream"))
	}
	if strm.Key("Type").Name() != "ObjStm" {
		panic(pdferr.NewCorrupted("compressed object stream missing /Type /ObjStm"))
	}
	n := int(strm.Key("N").Int64())
	first := strm.Key("First").Int64()
	if first == 0 {
		panic(pdferr.NewCorrupted("compressed object stream missing /First"))
	}
	if n < 0 || n > 10_000_000 {
		panic(pdferr.NewCorrupted("compressed object stream declares implausible /N %d", n))
	}

	b := newBuffer(strm.Reader(), 0)
	b.allowEOF = true
	b.allowObjptr = false
	for i := 0; i < n; i++ {
		id, _ := b.readToken().(int64)
		off, _ := b.readToken().(int64)
		if uint32(id) == xref.Ptr.ID {
			target := first + off
			if first < 0 || off < 0 {
				panic(pdferr.NewCorrupted("compressed object %d has a negative offset", xref.Ptr.ID))
			}
			b.seekForward(target)
			if b.readOffset() != target || b.pos < 0 {
				panic(pdferr.NewCorrupted("compressed object %d offset %d lies past the end of its object stream", xref.Ptr.ID, target))
			}
			return b.readObject()
		}
	}

	ext := strm.Key("Extends")
	if ext.Kind() != StreamKind {
		panic(pdferr.NewCorrupted("cannot find object %d in compressed object stream", xref.Ptr.ID))
	}
	return d.readFromObjStm(parent, types.Xref{Ptr: xref.Ptr, InStream: true, Stream: ext.ptr}, depth+1)
}

func (d *Document) streamReader(s types.Stream, lengthVal Value) (io.Reader, error) {
	length, err := d.resolveStreamLength(s, lengthVal)
	if err != nil {
		return nil, err
	}
	if err := d.src.EnsureRange(d.ctx, s.Offset, int(length)); err != nil {
		return nil, err
	}
	data, err := d.src.ReadRange(s.Offset, int(length))
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// maxEndstreamScan bounds the forward scan for a stream's terminating
// endstream keyword when /Length is missing or cannot be trusted.
const maxEndstreamScan = 10 << 20

// resolveStreamLength trusts /Length when it is a valid, in-bounds
// integer and the recorded span is immediately followed by endstream
// (tolerating up to two whitespace bytes); a valid, in-bounds /Length
// that isn't followed by endstream is CorruptedPDF. Anything else
// (missing, non-integer, negative, or reaching past the end of the
// source) falls back to a bounded forward scan for an EOL-preceded
// endstream keyword.
func (d *Document) resolveStreamLength(s types.Stream, lengthVal Value) (int64, error) {
	if lengthVal.Kind() == IntegerKind {
		n := lengthVal.Int64()
		if n >= 0 && d.streamSpanInBounds(s.Offset, n) {
			ok, err := d.endstreamFollows(s.Offset + n)
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, pdferr.NewCorrupted("stream at offset %d: endstream does not follow /Length %d", s.Offset, n)
			}
			return n, nil
		}
	}
	return d.scanForEndstream(s.Offset)
}

func (d *Document) streamSpanInBounds(streamStart, length int64) bool {
	end, ok := d.src.Length()
	if !ok {
		return true
	}
	return streamStart+length <= end
}

// endstreamFollows reports whether the endstream keyword begins at pos
// or after skipping up to two whitespace bytes at pos.
func (d *Document) endstreamFollows(pos int64) (bool, error) {
	const kw = "endstream"
	want := d.clampToSourceLength(pos, len(kw)+2)
	if want <= 0 {
		return false, nil
	}
	if err := d.src.EnsureRange(d.ctx, pos, want); err != nil {
		return false, err
	}
	data, err := d.src.ReadRange(pos, want)
	if err != nil {
		return false, err
	}
	for skip := 0; skip <= 2 && skip <= len(data); skip++ {
		if skip > 0 && !isSpace(data[skip-1]) {
			break
		}
		if bytes.HasPrefix(data[skip:], []byte(kw)) {
			return true, nil
		}
	}
	return false, nil
}

// scanForEndstream looks for an EOL-preceded endstream keyword
// starting at pos, bounded by maxEndstreamScan bytes, returning the
// number of payload bytes before that EOL. It is the fallback used
// when /Length is missing, not an integer, or does not lead into a
// genuine endstream.
func (d *Document) scanForEndstream(pos int64) (int64, error) {
	want := d.clampToSourceLength(pos, maxEndstreamScan)
	if want <= 0 {
		return 0, pdferr.NewParseAt(pos, "stream runs past end of file with no room for endstream")
	}
	if err := d.src.EnsureRange(d.ctx, pos, want); err != nil {
		return 0, err
	}
	data, err := d.src.ReadRange(pos, want)
	if err != nil {
		return 0, err
	}

	// Longest EOL marker first, so a \r\n pair is never mistaken for a
	// bare \n and left dangling in the reported payload length.
	for _, marker := range []string{"\r\nendstream", "\nendstream", "\rendstream"} {
		if i := bytes.Index(data, []byte(marker)); i >= 0 {
			return int64(i), nil
		}
	}
	return 0, pdferr.NewParseAt(pos, "could not find endstream within %d bytes", maxEndstreamScan)
}

// clampToSourceLength returns want, or fewer bytes if pos+want would
// reach past the source's known length.
func (d *Document) clampToSourceLength(pos int64, want int) int {
	if end, ok := d.src.Length(); ok {
		if remaining := end - pos; remaining < int64(want) {
			want = int(remaining)
		}
	}
	return want
}

type errorReadCloser struct {
	err error
}

func (e *errorReadCloser) Read([]byte) (int, error) { return 0, e.err }
func (e *errorReadCloser) Close() error              { return e.err }

// Reader returns the decoded data contained in the stream v. If
// v.Kind() != StreamKind, Reader returns a ReadCloser that fails every
// read with "stream not present".
func (v Value) Reader() io.ReadCloser {
	x, ok := v.data.(types.Stream)
	if !ok {
		return &errorReadCloser{fmt.Errorf("stream not present")}
	}

	rd, err := v.d.streamReader(x, v.Key("Length"))
	if err != nil {
		return &errorReadCloser{err}
	}

	var filterErr error
	filter := v.Key("Filter")
	param := v.Key("DecodeParms")
	func() {
		defer func() {
			if r := recover(); r != nil {
				filterErr = fmt.Errorf("%v", r)
			}
		}()
		switch filter.Kind() {
		default:
			panic(&pdferr.Unsupported{Feature: fmt.Sprintf("filter %v", filter)})
		case NullKind:
			// ok, raw bytes
		case NameKind:
			rd = applyFilter(rd, filter.Name(), param)
		case ArrayKind:
			for i := 0; i < filter.Len(); i++ {
				rd = applyFilter(rd, filter.Index(i).Name(), param.Index(i))
			}
		}
	}()
	if filterErr != nil {
		return &errorReadCloser{filterErr}
	}

	if rc, ok := rd.(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(rd)
}

func applyFilter(rd io.Reader, name string, param Value) io.Reader {
	switch name {
	default:
		panic(&pdferr.Unsupported{Feature: "filter " + name})
	case "FlateDecode":
		zr, err := zlib.NewReader(rd)
		if err != nil {
			panic(pdferr.NewParse("flate decode: %v", err))
		}
		pred := param.Key("Predictor")
		if pred.Kind() == NullKind {
			return zr
		}
		columns := param.Key("Columns").Int64()
		if columns <= 0 {
			columns = 1
		}
		switch pred.Int64() {
		default:
			slog.Debug("unknown predictor", slog.Any("pred", pred))
			panic(&pdferr.Unsupported{Feature: "PNG predictor"})
		case 12:
			return &pngUpReader{r: zr, hist: make([]byte, 1+columns), tmp: make([]byte, 1+columns)}
		}
	case "ASCII85Decode":
		cleanASCII85 := newAlphaReader(rd)
		return ascii85.NewDecoder(cleanASCII85)
	case "ASCIIHexDecode":
		return newHexFilterReader(rd)
	case "LZWDecode":
		early := int64(1)
		if e := param.Key("EarlyChange"); e.Kind() == IntegerKind {
			early = e.Int64()
		}
		return newLZWReader(rd, early != 0)
	case "RunLengthDecode":
		return newRunLengthReader(rd)
	}
}

type pngUpReader struct {
	r    io.Reader
	hist []byte
	tmp  []byte
	pend []byte
}

func (r *pngUpReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(r.pend) > 0 {
			m := copy(b, r.pend)
			n += m
			b = b[m:]
			r.pend = r.pend[m:]
			continue
		}
		_, err := io.ReadFull(r.r, r.tmp)
		if err != nil {
			return n, err
		}
		if r.tmp[0] != 2 {
			return n, fmt.Errorf("malformed PNG-Up encoding")
		}
		for i, b := range r.tmp {
			r.hist[i] += b
		}
		r.pend = r.hist[1:]
	}
	return n, nil
}
