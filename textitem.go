package pdf

// A TextItem is one piece of text positioned on a page: the text shown
// by a single Tj/'/" operator, or the concatenation of every string in
// one TJ array (per ISO 32000-1 §9.4.3, a TJ array's numeric
// adjustments move the cursor within what a reader perceives as one
// run of text). X and Y are in unrotated page (user) space, the
// baseline origin of the first glyph. FontName and FontSize are nil
// when no named font is in effect: no Tf before this text was shown, or
// a Tf naming a font the page's resources do not define.
type TextItem struct {
	Text     string
	X, Y     float64
	FontName *string
	FontSize *float64
}

// textItemRenderer implements state.Renderer, appending one TextItem
// per call. Page.ExtractText renders every Tj/'/" directly through it;
// Page.extractTJ batches a TJ array's segments into a single Render
// call instead of one per segment.
type textItemRenderer struct {
	items []TextItem
}

func (r *textItemRenderer) Render(x, y, w, h, fontSize float64, font, s string) {
	if s == "" {
		return
	}
	item := TextItem{Text: s, X: x, Y: y}
	if font != "" {
		fn := font
		fs := fontSize
		item.FontName = &fn
		item.FontSize = &fs
	}
	r.items = append(r.items, item)
}
