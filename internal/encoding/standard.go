package encoding

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// NoRune marks a code point with no defined mapping in a given encoding.
const NoRune = '�'

// Sizer reports the advance width, in glyph-space units, of a decoded
// character code. CMap uses it to accumulate TJ/Tj advances as it decodes.
type Sizer interface {
	CodeWidth(code int) float64
}

// NoWidths is the zero-value Sizer for a CMap built without access to
// the font's /Widths array: every code reports a zero advance.
type NoWidths struct{}

func (NoWidths) CodeWidth(int) float64 { return 0 }

// None is the fallback decoder for a font whose encoding this package
// cannot interpret: every byte decodes to itself, one byte per rune.
type None struct{}

func (None) Decode(raw string) (string, float64) {
	r := make([]rune, len(raw))
	for i := 0; i < len(raw); i++ {
		r[i] = rune(raw[i])
	}
	return string(r), 0
}

// winAnsi and macRoman decode single-byte font encodings through
// golang.org/x/text's charmap tables, which supply the same code-page
// mappings PDF's WinAnsiEncoding and MacRomanEncoding are built from.
type winAnsi struct{}

func (winAnsi) Decode(raw string) (string, float64) {
	out, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		return None{}.Decode(raw)
	}
	return out, 0
}

type macRoman struct{}

func (macRoman) Decode(raw string) (string, float64) {
	out, err := charmap.Macintosh.NewDecoder().String(raw)
	if err != nil {
		return None{}.Decode(raw)
	}
	return out, 0
}

// WinANSI returns the decoder for the PDF /WinAnsiEncoding.
func WinANSI() *winAnsi { return &winAnsi{} }

// MacRoman returns the decoder for the PDF /MacRomanEncoding.
func MacRoman() *macRoman { return &macRoman{} }

type pdfDoc struct{}

func (pdfDoc) Decode(raw string) (string, float64) {
	return PDFDocDecode(raw), 0
}

// PDFDoc returns the decoder for PDFDocEncoding, the default text
// encoding for text strings in a PDF that are not UTF-16.
func PDFDoc() *pdfDoc { return &pdfDoc{} }

// pdfDocEncoding maps the PDFDocEncoding single-byte code points to
// Unicode, per PDF 32000-1:2008 Annex D.2. Code points PDFDocEncoding
// leaves undefined map to NoRune. It agrees with WinAnsiEncoding (and so
// with Windows-1252) outside of a handful of slots in 0x18-0x1F and
// 0x80-0x9F that PDFDocEncoding reserves for typographic punctuation;
// those are filled in explicitly below.
var pdfDocEncoding = func() [256]rune {
	var table [256]rune
	for i := 0; i < 256; i++ {
		if i < 0x80 {
			table[i] = rune(i)
			continue
		}
		r := charmap.Windows1252.DecodeByte(byte(i))
		if r != utf8.RuneError {
			table[i] = r
		} else {
			table[i] = NoRune
		}
	}
	// PDFDocEncoding-specific punctuation and symbol slots (Annex D.2)
	// that diverge from Windows-1252.
	overrides := map[byte]rune{
		0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
		0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
		0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
		0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
		0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
		0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
		0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
		0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
		0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
		0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0xA0: NoRune,
	}
	for b, r := range overrides {
		table[b] = r
	}
	return table
}()

// nameToRune maps Adobe glyph names used in a font's /Differences array
// to their Unicode code points. Only the subset that occurs in practice
// for Latin-text extraction is covered; anything else yields the zero
// rune, which Dict.Decode treats as unmapped.
var nameToRune = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
	"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=', "greater": '>',
	"question": '?', "at": '@',
	"bracketleft": '[', "backslash": '\\', "bracketright": ']',
	"asciicircum": '^', "underscore": '_', "grave": '`',
	"braceleft": '{', "bar": '|', "braceright": '}', "asciitilde": '~',
	"quoteleft": '‘', "quoteright": '’',
	"quotedblleft": '“', "quotedblright": '”',
	"endash": '–', "emdash": '—', "bullet": '•',
	"ellipsis": '…', "fi": 'ﬁ', "fl": 'ﬂ',
}

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		nameToRune[string(c)] = c
	}
	for c := 'a'; c <= 'z'; c++ {
		nameToRune[string(c)] = c
	}
}
