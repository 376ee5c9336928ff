package pdf

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dsanderman/pdfcore/internal/types"
	"github.com/dsanderman/pdfcore/source"
)

// buildXrefTablePDF assembles a minimal three-object PDF (a Catalog, a
// one-page Pages node, and a Page with a MediaBox) backed by a
// traditional cross-reference table, computing every byte offset from
// the text actually written rather than hardcoding them.
func buildXrefTablePDF() []byte {
	const header = "%PDF-1.4\n"
	const obj1 = "1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n"
	const obj2 = "2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n"
	const obj3 = "3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n"

	off1 := len(header)
	off2 := off1 + len(obj1)
	off3 := off2 + len(obj2)
	xrefOffset := off3 + len(obj3)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString(obj1)
	b.WriteString(obj2)
	b.WriteString(obj3)
	b.WriteString("xref\n")
	b.WriteString("0 4\n")
	b.WriteString("0000000000 65535 f \n")
	fmt.Fprintf(&b, "%010d 00000 n \n", off1)
	fmt.Fprintf(&b, "%010d 00000 n \n", off2)
	fmt.Fprintf(&b, "%010d 00000 n \n", off3)
	b.WriteString("trailer\n")
	b.WriteString("<< /Size 4 /Root 1 0 R >>\n")
	b.WriteString("startxref\n")
	fmt.Fprintf(&b, "%d\n", xrefOffset)
	b.WriteString("%%EOF")
	return []byte(b.String())
}

func openMemoryDocument(t *testing.T, data []byte) *Document {
	t.Helper()
	src := source.NewMemorySource(data, source.DefaultOptions())
	d, err := Open(context.Background(), src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return d
}

func Test_Open_readsTrailerAndCatalog(t *testing.T) {
	d := openMemoryDocument(t, buildXrefTablePDF())

	if got := d.Catalog().Key("Type").Name(); got != "Catalog" {
		t.Errorf("Catalog().Type = %q, want Catalog", got)
	}
	if got := d.PageCount(); got != 1 {
		t.Errorf("PageCount() = %d, want 1", got)
	}
}

func Test_Open_GetPage(t *testing.T) {
	d := openMemoryDocument(t, buildXrefTablePDF())

	page, err := d.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage(0): %v", err)
	}
	if got := page.V.Key("Type").Name(); got != "Page" {
		t.Errorf("page.Type = %q, want Page", got)
	}

	rect, err := page.MediaBoxRect()
	if err != nil {
		t.Fatalf("MediaBoxRect: %v", err)
	}
	want := [4]float64{0, 0, 612, 792}
	if rect != want {
		t.Errorf("MediaBoxRect() = %v, want %v", rect, want)
	}
}

func Test_Open_missingHeader_isCorrupted(t *testing.T) {
	data := buildXrefTablePDF()
	data = append([]byte("garbage!!"), data[9:]...)
	src := source.NewMemorySource(data, source.DefaultOptions())
	if _, err := Open(context.Background(), src); err == nil {
		t.Fatal("Open on a file with a corrupted header = nil error, want CorruptedPDF")
	}
}

func Test_Open_missingEOF_isCorrupted(t *testing.T) {
	data := buildXrefTablePDF()
	data = data[:len(data)-5] // drop the trailing %%EOF
	src := source.NewMemorySource(data, source.DefaultOptions())
	if _, err := Open(context.Background(), src); err == nil {
		t.Fatal("Open on a file with no trailing EOF marker = nil error, want CorruptedPDF")
	}
}

// docOverBytes builds a Document backed directly by data, without going
// through header/xref parsing, for exercising stream-length resolution
// in isolation.
func docOverBytes(data []byte) *Document {
	src := source.NewMemorySource(data, source.DefaultOptions())
	return &Document{ctx: context.Background(), src: src}
}

func Test_resolveStreamLength_trustsVerifiedLength(t *testing.T) {
	data := []byte("0123456789endstream")
	d := docOverBytes(data)

	got, err := d.resolveStreamLength(types.Stream{Offset: 0}, Value{data: int64(10)})
	if err != nil {
		t.Fatalf("resolveStreamLength: %v", err)
	}
	if got != 10 {
		t.Errorf("resolveStreamLength() = %d, want 10", got)
	}
}

func Test_resolveStreamLength_verifiedLengthToleratesWhitespace(t *testing.T) {
	data := []byte("0123456789\r\nendstream")
	d := docOverBytes(data)

	got, err := d.resolveStreamLength(types.Stream{Offset: 0}, Value{data: int64(10)})
	if err != nil {
		t.Fatalf("resolveStreamLength: %v", err)
	}
	if got != 10 {
		t.Errorf("resolveStreamLength() = %d, want 10", got)
	}
}

func Test_resolveStreamLength_wrongVerifiedLengthIsCorrupted(t *testing.T) {
	data := []byte("0123456789garbage endstream")
	d := docOverBytes(data)

	if _, err := d.resolveStreamLength(types.Stream{Offset: 0}, Value{data: int64(10)}); err == nil {
		t.Fatal("resolveStreamLength with /Length not followed by endstream = nil error, want CorruptedPDF")
	}
}

func Test_resolveStreamLength_missingLengthScansForward(t *testing.T) {
	data := []byte("hello world\nendstream")
	d := docOverBytes(data)

	got, err := d.resolveStreamLength(types.Stream{Offset: 0}, Value{})
	if err != nil {
		t.Fatalf("resolveStreamLength: %v", err)
	}
	if got != int64(len("hello world")) {
		t.Errorf("resolveStreamLength() = %d, want %d", got, len("hello world"))
	}
}

func Test_resolveStreamLength_outOfBoundsLengthScansForward(t *testing.T) {
	data := []byte("hello world\nendstream")
	d := docOverBytes(data)

	// /Length points past EOF, so the verified path is skipped and the
	// scan takes over.
	got, err := d.resolveStreamLength(types.Stream{Offset: 0}, Value{data: int64(len(data) + 1)})
	if err != nil {
		t.Fatalf("resolveStreamLength: %v", err)
	}
	if got != int64(len("hello world")) {
		t.Errorf("resolveStreamLength() = %d, want %d", got, len("hello world"))
	}
}

func Test_resolveStreamLength_scanFailsWithoutEndstream(t *testing.T) {
	data := []byte("hello world, no terminator here")
	d := docOverBytes(data)

	if _, err := d.resolveStreamLength(types.Stream{Offset: 0}, Value{}); err == nil {
		t.Fatal("resolveStreamLength with no endstream in range = nil error, want ParseError")
	}
}

func Test_Open_servicesDataMissingDuringInit(t *testing.T) {
	// A small chunk size forces readHeaderAndXref to hit several
	// DataMissing rounds (header, tail, xref table, object bodies)
	// before init() completes, exercising Document.withRetry.
	data := buildXrefTablePDF()
	src := source.NewMemorySource(data, source.Options{ChunkSize: 16, MaxCachedChunks: 4})
	d, err := Open(context.Background(), src)
	if err != nil {
		t.Fatalf("Open with small chunks: %v", err)
	}
	if d.PageCount() != 1 {
		t.Errorf("PageCount() = %d, want 1", d.PageCount())
	}
}
