// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdf

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/dsanderman/pdfcore/internal/matrix"
	"github.com/dsanderman/pdfcore/internal/state"
	"github.com/dsanderman/pdfcore/internal/types"
	"github.com/dsanderman/pdfcore/pdferr"
	"github.com/dsanderman/pdfcore/text"
)

// maxPageTreeDepth bounds how many /Kids or /Parent links GetPage will
// follow, guarding against a cycle in a corrupted page tree.
const maxPageTreeDepth = 100

// defaultTJGapThreshold is the PDF-units TJ numeric adjustment below
// which the extractor treats consecutive strings as word-separated
// rather than merely kerned, per ISO 32000-1 §9.4.3's "large"
// adjustment convention.
const defaultTJGapThreshold = -100.0

// defaultBandGap is the maximum baseline delta, in points, for two
// TextItems to be considered part of the same reading-order band.
const defaultBandGap = 4.0

// A Page represents a single page in a PDF file. The methods
// interpret a Page dictionary stored in V.
type Page struct {
	V Value
}

// PageCount returns the number of pages in the document, read from the
// page tree root's /Count.
func (d *Document) PageCount() uint32 {
	return uint32(d.PagesDict().Key("Count").Int64())
}

// GetPage returns the page at the given 0-indexed position, descending
// the page tree and fast-skipping whole subtrees using each node's
// /Count. Results are cached; repeat lookups of the same index do not
// re-walk the tree.
func (d *Document) GetPage(index uint32) (*Page, error) {
	if p, ok := d.pageCache.get(int(index)); ok {
		return &p, nil
	}

	num := int(index)
	page := d.PagesDict()
	visited := map[types.Objptr]bool{}
	depth := 0

Search:
	for page.Key("Type").Name() == "Pages" {
		if depth > maxPageTreeDepth {
			return nil, pdferr.NewCorrupted("page tree exceeds depth bound of %d", maxPageTreeDepth)
		}
		if page.ptr != (types.Objptr{}) {
			if visited[page.ptr] {
				return nil, pdferr.NewCorrupted("page tree contains a /Kids cycle")
			}
			visited[page.ptr] = true
		}

		count := int(page.Key("Count").Int64())
		if count < num {
			return nil, pdferr.NewCorrupted("page index %d out of range", index)
		}

		kids := page.Key("Kids")
		for i := 0; i < kids.Len(); i++ {
			kid := kids.Index(i)
			if kid.Key("Type").Name() == "Pages" {
				c := int(kid.Key("Count").Int64())
				if num < c {
					page = kid
					depth++
					continue Search
				}
				num -= c
				continue
			}
			if kid.Key("Type").Name() == "Page" {
				if num == 0 {
					p := Page{V: kid}
					d.pageCache.put(int(index), p)
					return &p, nil
				}
				num--
			}
		}
		return nil, pdferr.NewCorrupted("page index %d not found", index)
	}
	return nil, pdferr.NewCorrupted("page index %d not found", index)
}

func (p Page) findInherited(key string) Value {
	depth := 0
	for v := p.V; !v.IsNull() && depth < maxPageTreeDepth; v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
		depth++
	}
	return Value{}
}

// Resources returns the resources dictionary associated with the page.
func (p Page) Resources() Value {
	return p.findInherited("Resources")
}

// MediaBox returns the page's inherited /MediaBox, or a null Value if
// neither the page nor any ancestor declares one.
func (p Page) MediaBox() Value {
	return p.findInherited("MediaBox")
}

// CropBox returns the page's inherited /CropBox, or a null Value if
// neither the page nor any ancestor declares one.
func (p Page) CropBox() Value {
	return p.findInherited("CropBox")
}

// Rotate returns the page's inherited /Rotate, normalized to one of
// {0, 90, 180, 270}: any other multiple of 90 is reduced mod 360, and
// any value that is not a multiple of 90 is coerced to 0.
func (p Page) Rotate() int {
	r := p.findInherited("Rotate")
	if r.IsNull() {
		return 0
	}
	v := int(r.Int64())
	if v%90 != 0 {
		return 0
	}
	v %= 360
	if v < 0 {
		v += 360
	}
	return v
}

// MediaBoxRect returns the page's inherited MediaBox as [llx, lly, urx,
// ury]. A page with no MediaBox anywhere in its ancestor chain is
// CorruptedPDF: every valid page must have one, by inheritance if not
// directly.
func (p Page) MediaBoxRect() ([4]float64, error) {
	mb := p.MediaBox()
	if mb.Kind() != ArrayKind || mb.Len() != 4 {
		return [4]float64{}, pdferr.NewCorrupted("page has no MediaBox")
	}
	var rect [4]float64
	for i := 0; i < 4; i++ {
		rect[i] = mb.Index(i).Float64()
	}
	return rect, nil
}

// rotationMatrix returns the 2D rotation matrix for one of the four
// normalized page rotations.
func rotationMatrix(deg int) *matrix.Matrix {
	switch deg {
	case 90:
		return &matrix.Matrix{{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}}
	case 180:
		return &matrix.Matrix{{-1, 0, 0}, {0, -1, 0}, {0, 0, 1}}
	case 270:
		return &matrix.Matrix{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
	default:
		return matrix.Identity()
	}
}

// EffectiveMediaBox returns the page's MediaBox as displayed: width and
// height swapped for a 90 or 270 degree rotation.
func (p Page) EffectiveMediaBox() ([4]float64, error) {
	rect, err := p.MediaBoxRect()
	if err != nil {
		return rect, err
	}
	w := rect[2] - rect[0]
	h := rect[3] - rect[1]
	rm := rotationMatrix(p.Rotate())
	nw := math.Abs(w*rm[0][0] + h*rm[1][0])
	nh := math.Abs(w*rm[0][1] + h*rm[1][1])
	return [4]float64{rect[0], rect[1], rect[0] + nw, rect[1] + nh}, nil
}

// Fonts returns a list of the fonts associated with the page.
func (p Page) Fonts() []string {
	return p.Resources().Key("Font").Keys()
}

// Font returns the font with the given name associated with the page.
func (p Page) Font(name string) *Font {
	return NewFont(p.Resources().Key("Font").Key(name))
}

// ExtractText interprets the page's content streams and returns one
// TextItem per Tj/'/" operator, and one TextItem per TJ array (every
// string in a TJ array is concatenated into a single item, per ISO
// 32000-1 §9.4.3). A TJ numeric adjustment strictly below
// defaultTJGapThreshold inserts a space into the merged text instead of
// just advancing the cursor. A bad operator or operand is logged and
// skipped; it never aborts extraction for the rest of the page. A token
// the lexer cannot parse ends interpretation of the remaining content
// (see Interpret); the items extracted before it are kept.
func (p *Page) ExtractText() (items []TextItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("failed to extract page text: %v\n%s", r, debug.Stack())
		}
	}()

	decoders := make(map[string]*Font)
	for _, f := range p.Fonts() {
		decoders[f] = p.Font(f)
	}

	var (
		out    textItemRenderer
		gState state.Graphics
	)

	forEachStream(p, func(stk *Stack, op string) {
		n := stk.Len()
		args := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		if len(args) < minArity(op) {
			slog.Debug("skipping operator with too few operands", slog.String("op", op), slog.Int("operands", len(args)))
			return
		}

		switch op {
		case "q":
			gState.Push()
		case "Q":
			gState.Pop()
		case "cm":
			gState.CM(args[0].Float64(), args[1].Float64(), args[2].Float64(), args[3].Float64(), args[4].Float64(), args[5].Float64())

		case "Tc":
			gState.Tc(args[0].Float64())
		case "Tw":
			gState.Tw(args[0].Float64())
		case "Tz":
			gState.Tz(args[0].Float64())
		case "TL":
			gState.TL(args[0].Float64())
		case "BT":
			gState.BT()
		case "ET":
			gState.ET()
		case "Td":
			gState.Td(args[0].Float64(), args[1].Float64())
		case "TD":
			gState.TD(args[0].Float64(), args[1].Float64())
		case "Tm":
			gState.Tm(args[0].Float64(), args[1].Float64(), args[2].Float64(), args[3].Float64(), args[4].Float64(), args[5].Float64())
		case "T*":
			gState.Tstar()
		case "Tf":
			if f := decoders[args[0].Name()]; f != nil {
				gState.Tf(f, args[1].Float64())
			} else {
				gState.Tf(nil, args[1].Float64())
			}

		case `"`:
			gState.Tw(args[0].Float64())
			gState.Tc(args[1].Float64())
			args = args[2:]
			fallthrough
		case `'`:
			gState.Tstar()
			fallthrough
		case "Tj":
			gState.Tj(&out, args[0].RawString())
		case "TJ":
			extractTJ(&gState, &out, args[0])
		}
	})

	return out.items, nil
}

// minArity reports the minimum operand count an operator needs, so a
// truncated content stream degrades to a skipped operator instead of
// an index-out-of-range panic.
func minArity(op string) int {
	switch op {
	case "cm", "Tm":
		return 6
	case "Td", "TD":
		return 2
	case "Tc", "Tw", "Tz", "TL", "Tj", `'`, "TJ":
		return 1
	case "Tf":
		return 2
	case `"`:
		return 3
	default:
		return 0
	}
}

// extractTJ merges every string in a TJ array into a single TextItem,
// inserting a space for each numeric adjustment strictly below
// defaultTJGapThreshold.
func extractTJ(gState *state.Graphics, out *textItemRenderer, arr Value) {
	var (
		batch             strings.Builder
		x0, y0, fontSize0 float64
		fontName0         string
		started           bool
	)
	for i := 0; i < arr.Len(); i++ {
		e := arr.Index(i)
		switch e.Kind() {
		case StringKind:
			x, y, _, _, fn, fs, s := gState.TjMeasure(e.RawString())
			if s == "" {
				continue
			}
			if !started {
				x0, y0, fontName0, fontSize0 = x, y, fn, fs
				started = true
			}
			batch.WriteString(s)
		case RealKind, IntegerKind:
			v := e.Float64()
			gState.TJDisplace(v)
			if v < defaultTJGapThreshold {
				batch.WriteString(" ")
			}
		}
	}
	if started && batch.Len() > 0 {
		out.Render(x0, y0, 0, 0, fontSize0, fontName0, batch.String())
	}
}

// ExtractTextAsString flattens the page's TextItems into a single
// string, sorted into reading order: top-to-bottom bands (items within
// opts.BandGap of each other's Y share a band), left-to-right within a
// band, with a space inserted between items separated by more than
// half an em at the preceding item's font size.
func (p *Page) ExtractTextAsString(opts TextExtractionOptions) (string, error) {
	items, err := p.ExtractText()
	if err != nil {
		return "", err
	}
	if opts.BandGap <= 0 {
		opts.BandGap = defaultBandGap
	}

	sort.SliceStable(items, func(i, j int) bool {
		if math.Abs(items[i].Y-items[j].Y) > opts.BandGap {
			return items[i].Y > items[j].Y
		}
		return items[i].X < items[j].X
	})

	var b strings.Builder
	var prev *TextItem
	for i := range items {
		item := &items[i]
		if prev != nil {
			sameBand := math.Abs(item.Y-prev.Y) <= opts.BandGap
			if !sameBand {
				b.WriteString("\n")
			} else {
				halfEm := 0.5 * prevFontSize(prev)
				gap := item.X - prev.X
				if halfEm > 0 && gap > halfEm && !strings.HasSuffix(prev.Text, " ") {
					b.WriteString(" ")
				}
			}
		}
		b.WriteString(item.Text)
		prev = item
	}
	return b.String(), nil
}

func prevFontSize(item *TextItem) float64 {
	if item.FontSize == nil {
		return 0
	}
	return *item.FontSize
}

// TextExtractionOptions tunes ExtractTextAsString's reading-order
// assembly. A zero value selects the package defaults.
type TextExtractionOptions struct {
	// TJGapThreshold is unused by ExtractTextAsString directly (the TJ
	// merge happens once, in ExtractText); it is kept here so callers
	// have a single place to document the effective value instead of
	// a magic number of their own.
	TJGapThreshold float64
	BandGap        float64
}

// forEachStream interprets each of the page's content streams as a
// single logical PostScript-like stream, running do against every
// operator.
func forEachStream(p *Page, do func(stk *Stack, op string)) {
	v := p.V.Key("Contents")
	if v.Kind() == StreamKind {
		Interpret(v.Reader(), do)
		return
	}

	var rr []io.Reader
	for i := 0; i < v.Len(); i++ {
		v := v.Index(i)
		if v.Kind() == StreamKind {
			rr = append(rr, v.Reader())
		}
	}

	Interpret(io.MultiReader(rr...), do)
}

// Text returns the page's text assembled through package text's
// size/weight Builder, for callers that want its paragraph/section
// heuristics rather than positioned TextItems.
func (p *Page) Text() (text.Text, error) {
	items, err := p.ExtractText()
	if err != nil {
		return nil, err
	}
	var out text.Builder
	for _, item := range items {
		font := ""
		if item.FontName != nil {
			font = *item.FontName
		}
		fs := 0.0
		if item.FontSize != nil {
			fs = *item.FontSize
		}
		out.Render(item.X, item.Y, 0, fs, font, item.Text)
	}
	return out.Text(), nil
}
